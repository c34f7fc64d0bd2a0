package server

import (
	"testing"

	"github.com/npezzotti/roomchat/internal/stats"
	"github.com/npezzotti/roomchat/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func drainQueue(c *Client) [][]string {
	var out [][]string
	for {
		select {
		case lines := <-c.send:
			out = append(out, lines)
		default:
			return out
		}
	}
}

func TestBroadcaster_BroadcastToRoom(t *testing.T) {
	r := NewRegistry()
	alice := newTestClient(t, 4)
	bob := newTestClient(t, 4)
	carol := newTestClient(t, 4)
	r.Register(alice, "alice", "general", false)
	r.Register(bob, "bob", "general", false)
	r.Register(carol, "carol", "lounge", false)

	su := &stats.MockStatsUpdater{}
	b := NewBroadcaster(r, su, testutil.TestLogger(t))

	t.Run("chat line reaches sender too", func(t *testing.T) {
		n := b.BroadcastToRoom("hello", "general", "alice")

		assert.Equal(t, 2, n, "expected both room members to receive the line")
		assert.Equal(t, [][]string{{"alice: hello"}}, drainQueue(bob), "expected attributed line")
		assert.Equal(t, [][]string{{"alice: hello"}}, drainQueue(alice), "expected sender to receive its own line")
		assert.Empty(t, drainQueue(carol), "expected other rooms not to receive the line")
	})
	t.Run("system notice reaches everyone in room", func(t *testing.T) {
		n := b.BroadcastToRoom("alice has joined the room.", "general", "")

		assert.Equal(t, 2, n, "expected two recipients")
		assert.Equal(t, [][]string{{"alice has joined the room."}}, drainQueue(alice))
		assert.Equal(t, [][]string{{"alice has joined the room."}}, drainQueue(bob))
		assert.Empty(t, drainQueue(carol))
	})
	t.Run("empty room", func(t *testing.T) {
		assert.Equal(t, 0, b.BroadcastToRoom("anyone?", "attic", ""), "expected no recipients")
	})

	su.AssertExpectations(t)
}

func TestBroadcaster_DroppedMessages(t *testing.T) {
	r := NewRegistry()
	slow := newTestClient(t, 1)
	fast := newTestClient(t, 4)
	r.Register(slow, "slow", "general", false)
	r.Register(fast, "fast", "general", false)
	slow.send <- []string{"backlog"}

	su := &stats.MockStatsUpdater{}
	su.On("Incr", stats.DroppedMessages).Once()
	b := NewBroadcaster(r, su, testutil.TestLogger(t))

	n := b.BroadcastToRoom("notice", "general", "")

	assert.Equal(t, 1, n, "expected only the fast client to receive the line")
	assert.Equal(t, [][]string{{"notice"}}, drainQueue(fast))
	assert.Equal(t, [][]string{{"backlog"}}, drainQueue(slow), "expected full queue to be left untouched")
	su.AssertExpectations(t)
}

func TestBroadcaster_BroadcastAll(t *testing.T) {
	r := NewRegistry()
	alice := newTestClient(t, 4)
	carol := newTestClient(t, 4)
	r.Register(alice, "alice", "general", false)
	r.Register(carol, "carol", "lounge", false)

	b := NewBroadcaster(r, &stats.MockStatsUpdater{}, testutil.TestLogger(t))
	block := []string{RoomListBegin, "General 🔓", RoomListEnd}

	assert.Equal(t, 2, b.BroadcastAll(block...), "expected every live session to receive the block")
	assert.Equal(t, [][]string{block}, drainQueue(alice))
	assert.Equal(t, [][]string{block}, drainQueue(carol))
}
