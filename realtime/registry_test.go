package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	id    string
	mu    sync.Mutex
	rooms map[string]bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, rooms: map[string]bool{}}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Join(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = true
}

func (c *fakeConn) Leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

func (c *fakeConn) in(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[room]
}

func TestRegistry_JoinEvictsPreviousSessionConnection(t *testing.T) {
	r := NewRegistry()
	first := newFakeConn("c1")
	second := newFakeConn("c2")

	evicted, ok := r.Join(first, "s1", "bob")
	assert.False(t, ok)
	assert.Nil(t, evicted)
	assert.True(t, first.in("bob"))

	evicted, ok = r.Join(second, "s1", "bob")
	assert.True(t, ok)
	assert.Equal(t, "c1", evicted.ConnectionID)
	assert.False(t, first.in("bob"))
	assert.True(t, second.in("bob"))

	conns := r.Connections()
	assert.Len(t, conns, 1)
	assert.Equal(t, "c2", conns[0].ConnectionID)
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	r := NewRegistry()
	r.Join(newFakeConn("c1"), "s1", "bob")
	r.Join(newFakeConn("c2"), "s2", "bob")

	assert.Len(t, r.Connections(), 2)

	c, ok := r.Lookup("s2")
	assert.True(t, ok)
	assert.Equal(t, "c2", c.ConnectionID)
	assert.Equal(t, "bob", c.RoomID)
	assert.False(t, c.JoinedAt.IsZero())
}

func TestRegistry_ConcurrentJoinsLeaveOneRecord(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Join(newFakeConn(fmt.Sprintf("c%d", i)), "same-session", "bob")
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Connections(), 1)
	_, ok := r.Lookup("same-session")
	assert.True(t, ok)
}

func TestRegistry_Disconnect(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")
	r.Join(conn, "s1", "bob")
	r.Join(newFakeConn("c2"), "s2", "alice")

	removed := r.Disconnect("c1")
	assert.Len(t, removed, 1)
	assert.False(t, conn.in("bob"))
	assert.False(t, r.HasRoom("bob"))
	assert.True(t, r.HasRoom("alice"))

	_, ok := r.Lookup("s1")
	assert.False(t, ok)

	assert.Empty(t, r.Disconnect("unknown"))
}
