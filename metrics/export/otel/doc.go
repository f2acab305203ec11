// Package otel exposes kit counters and latency histograms through an
// OpenTelemetry [metric.Meter].
//
// [NewExporter] registers one Int64ObservableCounter per kit counter and one
// Int64ObservableGauge per histogram bucket. A single callback reads
// [kit.Kit.MetricsSnapshot] on each collection cycle.
//
// The caller owns the MeterProvider; the exporter never mutates kit state.
package otel
