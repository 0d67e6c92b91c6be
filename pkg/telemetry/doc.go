// Package telemetry wires OpenTelemetry exporters and meters for the replay
// facade.
//
// It centralises trace provider setup, applies replay-specific resource
// attributes, records SDK call metrics, and redacts user identity attributes
// before they are attached to exported spans.
package telemetry
