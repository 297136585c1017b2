package engine

import (
	"runtime"
	"sync"
	"time"
)

const (
	runtimeSampleWindowDefault = 60
	runtimeSampleMaxSamples    = 120
)

// RuntimeSample captures a snapshot of Go runtime memory/GC stats,
// taken once per update cycle.
type RuntimeSample struct {
	Timestamp    int64
	HeapAlloc    uint64
	HeapInuse    uint64
	HeapSys      uint64
	NumGC        uint32
	LastGCTime   int64
	PauseTotalNs uint64
	LastPauseNs  uint64
}

// RuntimeSampleBuffer is a fixed-capacity ring buffer of recent
// [RuntimeSample]s. Unlike the debug-server-facing sampler it's
// descended from, it takes no background ticker: [Engine.RunFrame]
// samples it directly once per cycle, so a process can run any number
// of engines without a shared, process-wide sampling goroutine.
type RuntimeSampleBuffer struct {
	mu      sync.RWMutex
	samples []RuntimeSample
	index   int
	count   int
}

// NewRuntimeSampleBuffer creates a buffer holding up to window recent
// samples (at most runtimeSampleMaxSamples). window <= 0 uses a default
// of 60.
func NewRuntimeSampleBuffer(window int) *RuntimeSampleBuffer {
	if window <= 0 {
		window = runtimeSampleWindowDefault
	}
	if window > runtimeSampleMaxSamples {
		window = runtimeSampleMaxSamples
	}
	return &RuntimeSampleBuffer{samples: make([]RuntimeSample, window)}
}

// Sample reads current runtime memory/GC stats and records them.
func (b *RuntimeSampleBuffer) Sample() {
	b.Add(readRuntimeSample())
}

// Add stores a runtime sample.
func (b *RuntimeSampleBuffer) Add(sample RuntimeSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[b.index] = sample
	b.index = (b.index + 1) % len(b.samples)
	if b.count < len(b.samples) {
		b.count++
	}
}

// Snapshot returns samples in chronological order.
func (b *RuntimeSampleBuffer) Snapshot() []RuntimeSample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}
	result := make([]RuntimeSample, b.count)
	if b.count < len(b.samples) {
		copy(result, b.samples[:b.count])
	} else {
		copy(result, b.samples[b.index:])
		copy(result[len(b.samples)-b.index:], b.samples[:b.index])
	}
	return result
}

func readRuntimeSample() RuntimeSample {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	lastPause := uint64(0)
	if stats.NumGC > 0 {
		lastPause = stats.PauseNs[(stats.NumGC-1)%256]
	}
	lastGC := int64(0)
	if stats.LastGC > 0 {
		lastGC = time.Unix(0, int64(stats.LastGC)).UnixMilli()
	}

	return RuntimeSample{
		Timestamp:    time.Now().UnixMilli(),
		HeapAlloc:    stats.HeapAlloc,
		HeapInuse:    stats.HeapInuse,
		HeapSys:      stats.HeapSys,
		NumGC:        stats.NumGC,
		LastGCTime:   lastGC,
		PauseTotalNs: stats.PauseTotalNs,
		LastPauseNs:  lastPause,
	}
}
