package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendAfterCloseReturnsError(t *testing.T) {
	conn := NewConnection("user-1", "co-1", nil)
	conn.Close(1000, "bye")

	for i := 0; i < 10; i++ {
		assert.Error(t, conn.Send([]byte("late")))
	}
}

func TestSendConcurrentWithCloseDoesNotPanic(t *testing.T) {
	for round := 0; round < 50; round++ {
		conn := NewConnection("user-1", "co-1", nil)

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					_ = conn.Send([]byte("payload"))
				}
			}()
		}
		conn.Close(1001, "going away")
		wg.Wait()
	}
}

func TestSendClosesConnectionWhenBufferFull(t *testing.T) {
	conn := NewConnection("user-1", "co-1", nil)

	// No write loop is draining, so the buffer eventually fills and the
	// overflowing send closes the connection instead of blocking.
	var overflowed bool
	for i := 0; i < cap(conn.send)+1; i++ {
		if err := conn.Send([]byte("p")); err != nil {
			overflowed = true
			break
		}
	}
	assert.True(t, overflowed)
	assert.Error(t, conn.Send([]byte("after overflow")))

	// Closing again is a no-op.
	conn.Close(1000, "bye")
}
