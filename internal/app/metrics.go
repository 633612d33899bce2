package app

import (
	"sync/atomic"
	"time"

	"github.com/dshills/wstrim/internal/trim"
)

// Metrics counts the work done by the save hooks.
type Metrics struct {
	opened       atomic.Uint64
	saves        atomic.Uint64
	saveFailures atomic.Uint64
	saveTotalNs  atomic.Int64
	saveMaxNs    atomic.Int64

	resyncs       atomic.Uint64
	changedLines  atomic.Uint64
	trimmedLines  atomic.Uint64
	ownerMatches  atomic.Uint64
	erasedRuns    atomic.Uint64
	writesSkipped atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordOpen records an opened or cloned document.
func (m *Metrics) RecordOpen() {
	m.opened.Add(1)
}

// RecordSave records a save attempt and its duration.
func (m *Metrics) RecordSave(duration time.Duration, err error) {
	if err != nil {
		m.saveFailures.Add(1)
		return
	}
	ns := duration.Nanoseconds()
	m.saves.Add(1)
	m.saveTotalNs.Add(ns)

	// Update max (atomic compare-and-swap loop)
	for {
		old := m.saveMaxNs.Load()
		if ns <= old {
			break
		}
		if m.saveMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordSkippedWrite records a save whose content already matched the file.
func (m *Metrics) RecordSkippedWrite() {
	m.writesSkipped.Add(1)
}

// RecordTrim records one pre-save pass.
func (m *Metrics) RecordTrim(res trim.Result) {
	if res.Resynced {
		m.resyncs.Add(1)
	}
	m.changedLines.Add(uint64(len(res.ChangedLines)))
	m.trimmedLines.Add(uint64(len(res.Replacements)))
	if res.OwnerMatched {
		m.ownerMatches.Add(1)
	}
	m.erasedRuns.Add(uint64(len(res.Erased)))
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	saves := m.saves.Load()
	var avg time.Duration
	if saves > 0 {
		avg = time.Duration(m.saveTotalNs.Load() / int64(saves))
	}

	return MetricsSnapshot{
		Uptime:        time.Since(m.startTime),
		Opened:        m.opened.Load(),
		Saves:         saves,
		SaveFailures:  m.saveFailures.Load(),
		AvgSave:       avg,
		MaxSave:       time.Duration(m.saveMaxNs.Load()),
		WritesSkipped: m.writesSkipped.Load(),
		Resyncs:       m.resyncs.Load(),
		ChangedLines:  m.changedLines.Load(),
		TrimmedLines:  m.trimmedLines.Load(),
		OwnerMatches:  m.ownerMatches.Load(),
		ErasedRuns:    m.erasedRuns.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime        time.Duration
	Opened        uint64
	Saves         uint64
	SaveFailures  uint64
	AvgSave       time.Duration
	MaxSave       time.Duration
	WritesSkipped uint64
	Resyncs       uint64
	ChangedLines  uint64
	TrimmedLines  uint64
	OwnerMatches  uint64
	ErasedRuns    uint64
}
