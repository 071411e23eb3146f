package covermatch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordRank is called after each ranked-match operation.
	// k is the number of results requested, duration is the time taken,
	// err is nil if successful.
	RecordRank(k int, duration time.Duration, err error)

	// RecordReload is called after each catalog reload attempt.
	RecordReload(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRank(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordReload(time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RankCount       atomic.Int64
	RankErrors      atomic.Int64
	RankTotalNanos  atomic.Int64
	ReloadCount     atomic.Int64
	ReloadErrors    atomic.Int64
	ReloadTotalNano atomic.Int64
}

// RecordRank implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRank(k int, duration time.Duration, err error) {
	b.RankCount.Add(1)
	b.RankTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RankErrors.Add(1)
	}
}

// RecordReload implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReload(duration time.Duration, err error) {
	b.ReloadCount.Add(1)
	b.ReloadTotalNano.Add(duration.Nanoseconds())
	if err != nil {
		b.ReloadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RankCount:    b.RankCount.Load(),
		RankErrors:   b.RankErrors.Load(),
		RankAvgNanos: b.avgRankNanos(),
		ReloadCount:  b.ReloadCount.Load(),
		ReloadErrors: b.ReloadErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgRankNanos() int64 {
	count := b.RankCount.Load()
	if count == 0 {
		return 0
	}
	return b.RankTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RankCount    int64
	RankErrors   int64
	RankAvgNanos int64
	ReloadCount  int64
	ReloadErrors int64
}
