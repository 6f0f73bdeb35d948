package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRefusesClientsAfterStop(t *testing.T) {
	reg := NewRegistry()

	c := NewClient(nil, reg)
	assert.True(t, reg.Register(c))

	reg.Stop()
	assert.False(t, reg.Register(NewClient(nil, reg)), "registrations after shutdown are refused")

	_, ok := <-c.Send
	assert.False(t, ok, "stop closes the send channel")
}

func TestReplyDuringStopDoesNotPanic(t *testing.T) {
	reg := NewRegistry()
	c := NewClient(nil, reg)
	assert.True(t, reg.Register(c))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 32; i++ {
			c.Reply([]byte("pong"))
		}
	}()

	reg.Stop()
	wg.Wait()

	// Replies racing the shutdown are either queued or dropped, never sent
	// on the closed channel.
	c.Reply([]byte("late"))
}

func TestUnregisterClosesSendOnce(t *testing.T) {
	reg := NewRegistry()
	c := NewClient(nil, reg)
	assert.True(t, reg.Register(c))

	reg.Unregister(c)
	reg.Unregister(c)
	reg.Stop()

	_, ok := <-c.Send
	assert.False(t, ok)
}
