package hl7v2

import (
	"sync/atomic"
	"time"
)

// Metrics tracks codec activity using lock-free atomic operations. All
// methods are safe for concurrent use; a single Metrics may be shared by
// many parsers and serializers.
type Metrics struct {
	parsesTotal  atomic.Uint64
	parseErrors  atomic.Uint64
	warnings     atomic.Uint64
	serializes   atomic.Uint64
	segmentsRead atomic.Uint64

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64

	// Parse timing, stored as nanoseconds.
	parseTimeTotal atomic.Uint64
	parseTimeMin   atomic.Uint64
	parseTimeMax   atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so the first sample becomes the minimum.
	m.parseTimeMin.Store(^uint64(0))
	return m
}

// RecordParse records one completed parse attempt.
func (m *Metrics) RecordParse(duration time.Duration, inputBytes, segments int, failed bool) {
	if m == nil {
		return
	}
	m.parsesTotal.Add(1)
	if failed {
		m.parseErrors.Add(1)
	}
	m.bytesIn.Add(uint64(inputBytes))
	m.segmentsRead.Add(uint64(segments))

	ns := uint64(duration.Nanoseconds())
	m.parseTimeTotal.Add(ns)
	for {
		old := m.parseTimeMin.Load()
		if ns >= old || m.parseTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.parseTimeMax.Load()
		if ns <= old || m.parseTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordWarnings records tolerant-mode warnings emitted by one parse.
func (m *Metrics) RecordWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.warnings.Add(uint64(n))
}

// RecordSerialize records one completed serialization.
func (m *Metrics) RecordSerialize(outputBytes int) {
	if m == nil {
		return
	}
	m.serializes.Add(1)
	m.bytesOut.Add(uint64(outputBytes))
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	ParsesTotal  uint64 `json:"parsesTotal"`
	ParseErrors  uint64 `json:"parseErrors"`
	Warnings     uint64 `json:"warnings"`
	Serializes   uint64 `json:"serializes"`
	SegmentsRead uint64 `json:"segmentsRead"`
	BytesIn      uint64 `json:"bytesIn"`
	BytesOut     uint64 `json:"bytesOut"`

	ParseTimeAvg time.Duration `json:"parseTimeAvg"`
	ParseTimeMin time.Duration `json:"parseTimeMin"`
	ParseTimeMax time.Duration `json:"parseTimeMax"`
}

// Snapshot returns a consistent-enough view of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	s := Snapshot{
		ParsesTotal:  m.parsesTotal.Load(),
		ParseErrors:  m.parseErrors.Load(),
		Warnings:     m.warnings.Load(),
		Serializes:   m.serializes.Load(),
		SegmentsRead: m.segmentsRead.Load(),
		BytesIn:      m.bytesIn.Load(),
		BytesOut:     m.bytesOut.Load(),
	}
	if s.ParsesTotal > 0 {
		s.ParseTimeAvg = time.Duration(m.parseTimeTotal.Load() / s.ParsesTotal)
	}
	if min := m.parseTimeMin.Load(); min != ^uint64(0) {
		s.ParseTimeMin = time.Duration(min)
	}
	s.ParseTimeMax = time.Duration(m.parseTimeMax.Load())
	return s
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.parsesTotal.Store(0)
	m.parseErrors.Store(0)
	m.warnings.Store(0)
	m.serializes.Store(0)
	m.segmentsRead.Store(0)
	m.bytesIn.Store(0)
	m.bytesOut.Store(0)
	m.parseTimeTotal.Store(0)
	m.parseTimeMin.Store(^uint64(0))
	m.parseTimeMax.Store(0)
}
