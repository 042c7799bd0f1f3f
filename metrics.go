package annostore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLoadObjects is called after each merged object query.
	// sources is the number of datasets scanned.
	RecordLoadObjects(sources, objects int, duration time.Duration, err error)

	// RecordSave is called after each SaveItemObjects.
	RecordSave(saved, removed int, duration time.Duration, err error)

	// RecordLoadItems is called after each page of items.
	RecordLoadItems(items int, duration time.Duration, err error)

	// RecordEmbedding is called after each embedding lookup.
	RecordEmbedding(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoadObjects(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordLoadItems(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordEmbedding(int, time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadObjectsCount      atomic.Int64
	LoadObjectsErrors     atomic.Int64
	LoadObjectsTotalNanos atomic.Int64
	ObjectsLoaded         atomic.Int64
	SaveCount             atomic.Int64
	SaveErrors            atomic.Int64
	ObjectsSaved          atomic.Int64
	ObjectsRemoved        atomic.Int64
	LoadItemsCount        atomic.Int64
	LoadItemsErrors       atomic.Int64
	EmbeddingCount        atomic.Int64
	EmbeddingErrors       atomic.Int64
}

// RecordLoadObjects implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoadObjects(_, objects int, duration time.Duration, err error) {
	b.LoadObjectsCount.Add(1)
	b.LoadObjectsTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadObjectsErrors.Add(1)
		return
	}
	b.ObjectsLoaded.Add(int64(objects))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(saved, removed int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.ObjectsSaved.Add(int64(saved))
	b.ObjectsRemoved.Add(int64(removed))
}

// RecordLoadItems implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoadItems(_ int, _ time.Duration, err error) {
	b.LoadItemsCount.Add(1)
	if err != nil {
		b.LoadItemsErrors.Add(1)
	}
}

// RecordEmbedding implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbedding(_ int, _ time.Duration, err error) {
	b.EmbeddingCount.Add(1)
	if err != nil {
		b.EmbeddingErrors.Add(1)
	}
}

// MetricsStats is a snapshot of BasicMetricsCollector.
type MetricsStats struct {
	LoadObjectsCount  int64
	LoadObjectsErrors int64
	AvgLoadObjects    time.Duration
	ObjectsLoaded     int64
	SaveCount         int64
	SaveErrors        int64
	ObjectsSaved      int64
	ObjectsRemoved    int64
	LoadItemsCount    int64
	LoadItemsErrors   int64
	EmbeddingCount    int64
	EmbeddingErrors   int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	stats := MetricsStats{
		LoadObjectsCount:  b.LoadObjectsCount.Load(),
		LoadObjectsErrors: b.LoadObjectsErrors.Load(),
		ObjectsLoaded:     b.ObjectsLoaded.Load(),
		SaveCount:         b.SaveCount.Load(),
		SaveErrors:        b.SaveErrors.Load(),
		ObjectsSaved:      b.ObjectsSaved.Load(),
		ObjectsRemoved:    b.ObjectsRemoved.Load(),
		LoadItemsCount:    b.LoadItemsCount.Load(),
		LoadItemsErrors:   b.LoadItemsErrors.Load(),
		EmbeddingCount:    b.EmbeddingCount.Load(),
		EmbeddingErrors:   b.EmbeddingErrors.Load(),
	}
	if stats.LoadObjectsCount > 0 {
		stats.AvgLoadObjects = time.Duration(b.LoadObjectsTotalNanos.Load() / stats.LoadObjectsCount)
	}
	return stats
}
