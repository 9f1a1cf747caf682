package logsink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyWindow(t *testing.T) {
	w := newLatencyWindow(3)

	assert.Equal(t, 10*time.Millisecond, w.add(10*time.Millisecond))
	assert.Equal(t, 15*time.Millisecond, w.add(20*time.Millisecond))
	assert.Equal(t, 20*time.Millisecond, w.add(30*time.Millisecond))

	// Oldest sample (10ms) is evicted
	assert.Equal(t, 30*time.Millisecond, w.add(40*time.Millisecond))
	assert.Equal(t, 3, w.count)

	// Non-positive sizes fall back to the default window
	assert.Len(t, newLatencyWindow(0).samples, int(defaultConfig.LatencyWindow))
}

func TestTracker(t *testing.T) {
	tr := newTracker(2)

	empty := tr.snapshot()
	assert.True(t, empty.LastWriteTime.IsZero())
	assert.Equal(t, time.Duration(0), empty.AverageLatency)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tr.writeOps.Add(2)
	tr.recordWrite(3, 4*time.Millisecond, at)
	tr.recordWrite(2, 8*time.Millisecond, at.Add(time.Second))
	tr.recordFailure(5)
	tr.rotations.Add(1)
	tr.archivesDeleted.Add(2)

	s := tr.snapshot()
	assert.Equal(t, uint64(5), s.Written)
	assert.Equal(t, uint64(5), s.Failed)
	assert.Equal(t, uint64(2), s.WriteOps)
	assert.Equal(t, uint64(1), s.Rotations)
	assert.Equal(t, uint64(2), s.ArchivesDeleted)
	assert.Equal(t, 6*time.Millisecond, s.AverageLatency)
	assert.Equal(t, 2, s.LatencySampleCount)
	assert.True(t, at.Add(time.Second).Equal(s.LastWriteTime))
}
