package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// overlapConn fails the race if two WriteJSON calls ever run concurrently,
// which the gorilla API forbids.
type overlapConn struct {
	inFlight int32
	overlaps int32
	writes   int32
}

func (c *overlapConn) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		atomic.AddInt32(&c.overlaps, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&c.writes, 1)
	atomic.AddInt32(&c.inFlight, -1)
	return nil
}

func (c *overlapConn) ReadJSON(dest interface{}) error { return nil }
func (c *overlapConn) Close() error                    { return nil }

func TestFanOutSerializesWritesPerConnection(t *testing.T) {
	coachID := uuid.New()
	conn := &overlapConn{}

	wc := RegisterWatcher(coachID, conn)
	defer UnregisterWatcher(coachID)
	WatchTrainee(coachID, "trainee-1")

	const events = 20
	for i := 0; i < events; i++ {
		FanOutStatusEvent(StatusEvent{Type: "status", UID: "trainee-1", Status: "cutOff"})
	}

	// A snapshot write from the handler side competes with fan-out.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = wc.WriteJSON(StatusEvent{Type: "status", UID: "trainee-1", Status: "allClear"})
	}()
	wg.Wait()

	// Fan-out sends are fire-and-forget goroutines; give them time to drain.
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&conn.writes) < events+1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	require.Equal(t, int32(events+1), atomic.LoadInt32(&conn.writes))
	assert.Zero(t, atomic.LoadInt32(&conn.overlaps))
}

func TestFanOutSkipsNonWatchers(t *testing.T) {
	coachID := uuid.New()
	conn := &overlapConn{}

	RegisterWatcher(coachID, conn)
	defer UnregisterWatcher(coachID)
	WatchTrainee(coachID, "trainee-1")

	FanOutStatusEvent(StatusEvent{Type: "status", UID: "trainee-2", Status: "cutOff"})

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&conn.writes))
}
