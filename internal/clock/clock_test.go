package clock

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFixed(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := Fixed(at)
	if !c.Now().Equal(at) {
		t.Errorf("expected %v, got %v", at, c.Now())
	}
}

func TestTimeManager_RealTimeByDefault(t *testing.T) {
	tm := NewTimeManager(testLogger())
	if tm.IsTestMode() {
		t.Fatal("expected real time by default")
	}
	if d := time.Since(tm.Now()); d < 0 || d > time.Second {
		t.Errorf("expected now close to wall clock, drift %v", d)
	}
}

func TestTimeManager_Apply(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantErr  bool
		wantTest bool
	}{
		{"enable virtual time", `{"test_mode":true,"virtual_start":"2024-01-01T08:00:00Z","time_scale":60}`, false, true},
		{"scale defaults to one", `{"test_mode":true,"virtual_start":"2024-01-01T08:00:00Z"}`, false, true},
		{"disable", `{"test_mode":false}`, false, false},
		{"invalid json", `{test_mode}`, true, false},
		{"invalid start", `{"test_mode":true,"virtual_start":"yesterday"}`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewTimeManager(testLogger())
			err := tm.Apply([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tm.IsTestMode() != tt.wantTest {
				t.Errorf("IsTestMode() = %v, want %v", tm.IsTestMode(), tt.wantTest)
			}
		})
	}
}

func TestTimeManager_VirtualNow(t *testing.T) {
	tm := NewTimeManager(testLogger())
	if err := tm.Apply([]byte(`{"test_mode":true,"virtual_start":"2024-01-01T08:00:00Z","time_scale":1}`)); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	now := tm.Now()
	if now.Before(start) || now.Sub(start) > time.Second {
		t.Errorf("expected virtual now just after %v, got %v", start, now)
	}
}
