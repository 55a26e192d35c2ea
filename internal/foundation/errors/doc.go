// Package errors provides classified error primitives shared by the CLI, the build and the HTTP
// service.
//
// A ClassifiedError carries a category (config, network, parse, ...), a severity and a retry
// strategy so callers can decide how to react without string matching. Adapters translate them
// into process exit codes and HTTP responses.
//
// Example usage:
//
//	err := errors.NetworkError("fetch failed").
//		WithContext("url", url).
//		WithCause(cause).
//		Build()
package errors
