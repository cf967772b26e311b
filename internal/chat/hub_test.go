package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	writes []interface{}
	fail   bool
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	if c.fail {
		return errors.New("broken pipe")
	}
	c.writes = append(c.writes, v)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestBroadcastReachesAllConversationConns(t *testing.T) {
	hub := NewHub()

	customer := &fakeConn{}
	agent := &fakeConn{}
	other := &fakeConn{}

	hub.Register(1, customer)
	hub.Register(1, agent)
	hub.Register(2, other)

	hub.Broadcast(1, "hello")

	assert.Len(t, customer.writes, 1)
	assert.Len(t, agent.writes, 1)
	assert.Empty(t, other.writes)
}

func TestBroadcastToEmptyConversation(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(99, "nobody home")
}

func TestUnregisterRemovesConn(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Register(1, conn)
	assert.Equal(t, 1, hub.ConnectionCount(1))

	hub.Unregister(1, conn)
	assert.Zero(t, hub.ConnectionCount(1))

	hub.Broadcast(1, "gone")
	assert.Empty(t, conn.writes)
}

func TestBroadcastDropsFailedConn(t *testing.T) {
	hub := NewHub()

	healthy := &fakeConn{}
	broken := &fakeConn{fail: true}

	hub.Register(1, healthy)
	hub.Register(1, broken)

	hub.Broadcast(1, "ping")

	assert.True(t, broken.closed)
	assert.Equal(t, 1, hub.ConnectionCount(1))

	hub.Broadcast(1, "again")
	assert.Len(t, healthy.writes, 2)
}
