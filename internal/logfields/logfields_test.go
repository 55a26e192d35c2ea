package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies key stability; log pipelines index on these names.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, BuildID("b1")},
		{"URL", KeyURL, URL("https://x")},
		{"CacheKey", KeyCacheKey, CacheKey("https://x|a")},
		{"Status", KeyStatus, Status(500)},
		{"Phase", KeyPhase, Phase("resolving")},
		{"Path", KeyPath, Path("/tmp/x")},
		{"File", KeyFile, File("index.md")},
		{"Placeholders", KeyPlaceholders, Placeholders(3)},
		{"Keys", KeyKeys, Keys(2)},
		{"Failed", KeyFailed, Failed(1)},
		{"Attempt", KeyAttempt, Attempt(1)},
		{"Method", KeyMethod, Method("GET")},
		{"RemoteAddr", KeyRemoteAddr, RemoteAddr("1.2.3.4")},
		{"RequestID", KeyRequestID, RequestID("rid")},
		{"Duration", KeyDurationMS, Duration(1500 * time.Microsecond)},
		{"Error", KeyError, Error(errors.New("x"))},
	}
	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
	}
}

func TestDurationMilliseconds(t *testing.T) {
	if got := Duration(1500 * time.Microsecond).Value.Float64(); got != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", got)
	}
}

func TestErrorNil(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty string for nil error, got %q", a.Value.String())
	}
}
