// Package prometheus renders kit metrics in the Prometheus text exposition format.
//
// [NewExporter] wraps a [kit.Kit] (or any [Source]) and exposes an [http.Handler]
// for a /metrics route. Counters are named kit_*_total; the hash, verify and
// dispatch latencies are histograms named kit_*_latency_seconds.
//
// Nothing is registered globally; callers mount the Handler themselves.
package prometheus
