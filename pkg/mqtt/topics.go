package mqtt

import "strings"

// Default topics used by the motion device firmware
const (
	TopicMotion     = "lumosMQTT/motion"
	TopicStatus     = "lumosMQTT/status"
	TopicTimeConfig = "lumosMQTT/test/time_config"
)

// Matches reports whether topic matches filter, honouring the + and #
// wildcards
func Matches(filter, topic string) bool {
	fparts := strings.Split(filter, "/")
	tparts := strings.Split(topic, "/")

	for i, f := range fparts {
		if f == "#" {
			return true
		}
		if i >= len(tparts) {
			return false
		}
		if f != "+" && f != tparts[i] {
			return false
		}
	}
	return len(fparts) == len(tparts)
}
