package config

import "strings"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed mode, or "" when unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return normalizeEnum(raw, RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential)
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NormalizeLogLevel converts user input into a LogLevel, or "" when unknown.
func NormalizeLogLevel(raw string) LogLevel {
	if strings.EqualFold(strings.TrimSpace(raw), "warning") {
		return LogLevelWarn
	}
	return normalizeEnum(raw, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// NormalizeLogFormat converts user input into a LogFormat, or "" when unknown.
func NormalizeLogFormat(raw string) LogFormat {
	return normalizeEnum(raw, LogFormatText, LogFormatJSON)
}

// OutputFormat selects what the build writes for each document.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputHTML     OutputFormat = "html"
)

// NormalizeOutputFormat converts user input into an OutputFormat, or "" when unknown.
func NormalizeOutputFormat(raw string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(raw), "md") {
		return OutputMarkdown
	}
	return normalizeEnum(raw, OutputMarkdown, OutputHTML)
}

func normalizeEnum[T ~string](raw string, allowed ...T) T {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	for _, v := range allowed {
		if string(v) == cleaned {
			return v
		}
	}
	return ""
}
