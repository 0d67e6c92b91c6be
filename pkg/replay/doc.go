// Package replay is the facade between a host application and an external
// session-replay SDK.
//
// A Facade is constructed once, initialized once, and shared by reference.
// Until initialization succeeds every forwarding call is a logged no-op.
// After it succeeds, calls are handed to the SDK and any failure the SDK
// reports (error or panic) is logged and contained: telemetry never breaks
// the host. Each operation records its outcome to Prometheus metrics and an
// OpenTelemetry span.
package replay
