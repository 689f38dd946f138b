// Package migrations provides the embedded SQL migrations for the motion event store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
