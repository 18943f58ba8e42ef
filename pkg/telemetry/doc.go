// Package telemetry wires the Runner's lifecycle events (pkg/runner.Event)
// into OpenTelemetry: Provider exposes a Meter/Tracer over a Prometheus
// exporter, and Observer adapts runner.Observer into metric/span recordings
// without the runner itself importing OpenTelemetry.
package telemetry
