package logsink

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(msg string) Record {
	return Record{Timestamp: time.Now(), Level: LevelInfo, Category: "test", Message: msg}
}

func TestQueueFIFO(t *testing.T) {
	q := newQueue(10, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.enqueue(testRecord(strconv.Itoa(i))))
	}
	assert.Equal(t, 5, q.len())
	q.close()

	var got []string
	for r := range q.all(context.Background()) {
		got = append(got, r.Message)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, got)
	assert.Equal(t, 0, q.len())
}

func TestQueueFullTimesOut(t *testing.T) {
	q := newQueue(1, 30*time.Millisecond)

	require.NoError(t, q.enqueue(testRecord("first")))

	start := time.Now()
	err := q.enqueue(testRecord("second"))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	// First record is still there
	q.close()
	var got []string
	for r := range q.all(context.Background()) {
		got = append(got, r.Message)
	}
	assert.Equal(t, []string{"first"}, got)
}

func TestQueueFullNoWait(t *testing.T) {
	q := newQueue(1, 0)

	require.NoError(t, q.enqueue(testRecord("first")))
	assert.ErrorIs(t, q.enqueue(testRecord("second")), ErrQueueFull)
}

func TestQueueWaitSucceedsWhenSpaceFrees(t *testing.T) {
	q := newQueue(1, time.Second)
	require.NoError(t, q.enqueue(testRecord("first")))

	go func() {
		time.Sleep(20 * time.Millisecond)
		<-q.recv()
	}()

	assert.NoError(t, q.enqueue(testRecord("second")))
	assert.Equal(t, 1, q.len())
}

func TestQueueClose(t *testing.T) {
	q := newQueue(4, 0)
	require.NoError(t, q.enqueue(testRecord("kept")))

	q.close()
	q.close() // Idempotent

	assert.ErrorIs(t, q.enqueue(testRecord("late")), ErrQueueClosed)

	drained := q.drainAvailable(nil)
	require.Len(t, drained, 1)
	assert.Equal(t, "kept", drained[0].Message)
}

func TestQueueCloseWaitsForInFlight(t *testing.T) {
	q := newQueue(1, 100*time.Millisecond)
	require.NoError(t, q.enqueue(testRecord("first")))

	var wg sync.WaitGroup
	wg.Add(1)
	var enqueueErr error
	go func() {
		defer wg.Done()
		enqueueErr = q.enqueue(testRecord("blocked"))
	}()

	// Let the producer enter its bounded wait
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	q.close()
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "close waits for the in-flight enqueue")

	wg.Wait()
	assert.ErrorIs(t, enqueueErr, ErrQueueFull)
}

func TestQueueAllStopsOnContext(t *testing.T) {
	q := newQueue(4, 0)
	require.NoError(t, q.enqueue(testRecord("one")))

	ctx, cancel := context.WithCancel(context.Background())

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range q.all(ctx) {
			got = append(got, r.Message)
		}
	}()

	assert.Eventually(t, func() bool { return q.len() == 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sequence did not end after cancel")
	}
	assert.Equal(t, []string{"one"}, got)
}

func TestQueueAllEarlyBreak(t *testing.T) {
	q := newQueue(4, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.enqueue(testRecord(strconv.Itoa(i))))
	}
	q.close()

	for r := range q.all(context.Background()) {
		assert.Equal(t, "0", r.Message)
		break
	}

	// A new sequence resumes with what is left
	var rest []string
	for r := range q.all(context.Background()) {
		rest = append(rest, r.Message)
	}
	assert.Equal(t, []string{"1", "2"}, rest)
}

func TestQueueDrainAvailable(t *testing.T) {
	q := newQueue(8, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.enqueue(testRecord(strconv.Itoa(i))))
	}

	prefix := []Record{testRecord("pending")}
	drained := q.drainAvailable(prefix)
	require.Len(t, drained, 4)
	assert.Equal(t, "pending", drained[0].Message)
	assert.Equal(t, "2", drained[3].Message)

	// Does not wait on an empty open queue
	assert.Empty(t, q.drainAvailable(nil))
}
