package kit

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/synthonyx/kit/dispatch"
	"github.com/synthonyx/kit/password"
)

// MetricID identifies one kit counter or histogram.
type MetricID uint16

const (
	// MetricHashSuccess counts credentials hashed successfully.
	MetricHashSuccess MetricID = iota
	// MetricHashFailure counts hash attempts that failed, including policy rejections.
	MetricHashFailure
	// MetricVerifyMatch counts verifications where the password matched.
	MetricVerifyMatch
	// MetricVerifyMismatch counts verifications where the password did not match.
	MetricVerifyMismatch
	// MetricVerifyMalformed counts verifications against an unparseable hash.
	MetricVerifyMalformed
	// MetricVerifyError counts verifications that failed for any other reason.
	MetricVerifyError
	// MetricDispatchSuccess counts asynchronous calls that returned without error.
	MetricDispatchSuccess
	// MetricDispatchFailure counts asynchronous calls that returned an error or panicked.
	MetricDispatchFailure
	// MetricDispatchDropped counts asynchronous calls rejected by a full queue.
	MetricDispatchDropped
	// MetricHashLatency is the hash latency histogram.
	MetricHashLatency
	// MetricVerifyLatency is the verify latency histogram.
	MetricVerifyLatency
	// MetricDispatchLatency is the asynchronous call latency histogram.
	MetricDispatchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free registry of kit counters and latency histograms.
//
// A nil or disabled Metrics accepts every call and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of a [Metrics] registry.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

var (
	_ password.Recorder = (*Metrics)(nil)
	_ dispatch.Recorder = (*Metrics)(nil)
)

// NewMetrics returns a registry configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id. Only latency metrics accept observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isLatency(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// RecordHash implements [password.Recorder].
func (m *Metrics) RecordHash(d time.Duration, err error) {
	if err != nil {
		m.Inc(MetricHashFailure)
	} else {
		m.Inc(MetricHashSuccess)
	}
	m.Observe(MetricHashLatency, d)
}

// RecordVerify implements [password.Recorder].
func (m *Metrics) RecordVerify(d time.Duration, match bool, err error) {
	switch {
	case errors.Is(err, password.ErrVerification):
		m.Inc(MetricVerifyMalformed)
	case err != nil:
		m.Inc(MetricVerifyError)
	case match:
		m.Inc(MetricVerifyMatch)
	default:
		m.Inc(MetricVerifyMismatch)
	}
	m.Observe(MetricVerifyLatency, d)
}

// RecordDispatch implements [dispatch.Recorder].
func (m *Metrics) RecordDispatch(d time.Duration, err error) {
	if err != nil {
		m.Inc(MetricDispatchFailure)
	} else {
		m.Inc(MetricDispatchSuccess)
	}
	m.Observe(MetricDispatchLatency, d)
}

// RecordDispatchDropped implements [dispatch.Recorder].
func (m *Metrics) RecordDispatchDropped() {
	m.Inc(MetricDispatchDropped)
}

// Snapshot copies every counter and, when enabled, every latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 3),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isLatency(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id := MetricID(0); id < metricIDCount; id++ {
			if !isLatency(id) {
				continue
			}
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isLatency(id MetricID) bool {
	switch id {
	case MetricHashLatency, MetricVerifyLatency, MetricDispatchLatency:
		return true
	}
	return false
}

func bucketIndex(d time.Duration) int {
	switch {
	case d <= 5*time.Millisecond:
		return 0
	case d <= 10*time.Millisecond:
		return 1
	case d <= 25*time.Millisecond:
		return 2
	case d <= 50*time.Millisecond:
		return 3
	case d <= 100*time.Millisecond:
		return 4
	case d <= 250*time.Millisecond:
		return 5
	case d <= 500*time.Millisecond:
		return 6
	default:
		return 7
	}
}
