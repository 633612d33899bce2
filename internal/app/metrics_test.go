package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/wstrim/internal/buffer"
	"github.com/dshills/wstrim/internal/trim"
)

func TestMetricsSaves(t *testing.T) {
	m := NewMetrics()

	m.RecordSave(10*time.Millisecond, nil)
	m.RecordSave(30*time.Millisecond, nil)
	m.RecordSave(time.Second, errors.New("boom"))
	m.RecordSkippedWrite()

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.Saves)
	assert.Equal(t, uint64(1), snap.SaveFailures)
	assert.Equal(t, 20*time.Millisecond, snap.AvgSave)
	assert.Equal(t, 30*time.Millisecond, snap.MaxSave)
	assert.Equal(t, uint64(1), snap.WritesSkipped)
}

func TestMetricsTrim(t *testing.T) {
	m := NewMetrics()

	m.RecordTrim(trim.Result{Resynced: true})
	m.RecordTrim(trim.Result{
		ChangedLines: []int{1, 4},
		Replacements: []trim.Replacement{{Line: 4}},
		OwnerMatched: true,
		Erased:       []buffer.Range{buffer.NewRange(0, 1), buffer.NewRange(3, 5)},
	})
	m.RecordOpen()

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.Resyncs)
	assert.Equal(t, uint64(2), snap.ChangedLines)
	assert.Equal(t, uint64(1), snap.TrimmedLines)
	assert.Equal(t, uint64(1), snap.OwnerMatches)
	assert.Equal(t, uint64(2), snap.ErasedRuns)
	assert.Equal(t, uint64(1), snap.Opened)
	assert.Zero(t, snap.AvgSave)
}
