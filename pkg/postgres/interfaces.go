package postgres

import (
	"context"
	"database/sql"
	"io/fs"
)

var _ Client = (*PostgresClient)(nil)

// Client is the Postgres connection used by the event store and the services
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error

	// Migrate applies pending up migrations from an embedded source
	Migrate(ctx context.Context, migrations fs.FS) error

	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) (*sql.Row, error)

	// Probe reports whether the database and the motion_events table are reachable
	Probe(ctx context.Context) error
}
