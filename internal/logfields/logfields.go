package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared across packages.
const (
	KeyBuildID      = "build_id"
	KeyURL          = "url"
	KeyCacheKey     = "cache_key"
	KeyStatus       = "status"
	KeyPhase        = "phase"
	KeyPath         = "path"
	KeyFile         = "file"
	KeyDurationMS   = "duration_ms"
	KeyPlaceholders = "placeholders"
	KeyKeys         = "keys"
	KeyFailed       = "failed"
	KeyAttempt      = "attempt"
	KeyMethod       = "method"
	KeyRemoteAddr   = "remote_addr"
	KeyRequestID    = "request_id"
	KeyError        = "error"
)

func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func CacheKey(k string) slog.Attr     { return slog.String(KeyCacheKey, k) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Phase(p string) slog.Attr        { return slog.String(KeyPhase, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Placeholders(n int) slog.Attr    { return slog.Int(KeyPlaceholders, n) }
func Keys(n int) slog.Attr            { return slog.Int(KeyKeys, n) }
func Failed(n int) slog.Attr          { return slog.Int(KeyFailed, n) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
