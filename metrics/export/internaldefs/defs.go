package internaldefs

import (
	"github.com/synthonyx/kit"
)

// BucketCount is the number of latency buckets every histogram carries.
const BucketCount = 8

// CounterDef names one kit counter.
type CounterDef struct {
	ID   kit.MetricID
	Name string
	Help string
}

// HistogramDef names one kit latency histogram.
type HistogramDef struct {
	ID   kit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: kit.MetricHashSuccess, Name: "kit_password_hash_success_total", Help: "Passwords hashed successfully."},
	{ID: kit.MetricHashFailure, Name: "kit_password_hash_failure_total", Help: "Hash attempts that failed, including policy rejections."},
	{ID: kit.MetricVerifyMatch, Name: "kit_password_verify_match_total", Help: "Verifications where the password matched."},
	{ID: kit.MetricVerifyMismatch, Name: "kit_password_verify_mismatch_total", Help: "Verifications where the password did not match."},
	{ID: kit.MetricVerifyMalformed, Name: "kit_password_verify_malformed_total", Help: "Verifications against an unset or unparseable hash."},
	{ID: kit.MetricVerifyError, Name: "kit_password_verify_error_total", Help: "Verifications that failed for any other reason."},
	{ID: kit.MetricDispatchSuccess, Name: "kit_dispatch_success_total", Help: "Asynchronous calls that completed without error."},
	{ID: kit.MetricDispatchFailure, Name: "kit_dispatch_failure_total", Help: "Asynchronous calls that failed or panicked."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: kit.MetricHashLatency, Name: "kit_password_hash_latency_seconds", Help: "Password hash latency histogram."},
	{ID: kit.MetricVerifyLatency, Name: "kit_password_verify_latency_seconds", Help: "Password verify latency histogram."},
	{ID: kit.MetricDispatchLatency, Name: "kit_dispatch_latency_seconds", Help: "Asynchronous call latency histogram."},
}

// DroppedName and DroppedHelp describe the dispatch drop counter, read from the
// pool rather than the metrics snapshot.
const (
	DroppedName = "kit_dispatch_dropped_total"
	DroppedHelp = "Asynchronous calls rejected because the dispatch queue was full."
)

// HistogramBounds are the upper bounds, in seconds, of each bucket.
var HistogramBounds = [BucketCount]string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds made safe for instrument names.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, truncating or zero-filling.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
