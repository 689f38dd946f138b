package mqtt

import (
	"strings"
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		filter   string
		topic    string
		expected bool
	}{
		{TopicMotion, "lumosMQTT/motion", true},
		{TopicMotion, "lumosMQTT/status", false},
		{"lumosMQTT/+", "lumosMQTT/motion", true},
		{"lumosMQTT/+", "lumosMQTT/test/time_config", false},
		{"lumosMQTT/#", "lumosMQTT/test/time_config", true},
		{"lumosMQTT/motion/extra", "lumosMQTT/motion", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"->"+tt.topic, func(t *testing.T) {
			if got := Matches(tt.filter, tt.topic); got != tt.expected {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.expected)
			}
		})
	}
}

func TestClientID(t *testing.T) {
	if got := ClientID("lumos-server", "fixed-id"); got != "fixed-id" {
		t.Errorf("expected configured id, got %s", got)
	}

	a := ClientID("lumos-server", "")
	b := ClientID("lumos-server", "")
	if !strings.HasPrefix(a, "lumos-server-") {
		t.Errorf("expected service prefix, got %s", a)
	}
	if a == b {
		t.Errorf("expected unique generated ids, got %s twice", a)
	}
}
