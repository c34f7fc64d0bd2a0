package server

import (
	"log"

	"github.com/npezzotti/roomchat/internal/stats"
)

// Broadcaster fans lines out to live sessions. It only enqueues, so one slow
// recipient never holds up the sender or the other recipients.
type Broadcaster struct {
	registry *Registry
	stats    stats.StatsProvider
	log      *log.Logger
}

func NewBroadcaster(r *Registry, su stats.StatsProvider, l *log.Logger) *Broadcaster {
	return &Broadcaster{
		registry: r,
		stats:    su,
		log:      l,
	}
}

// BroadcastToRoom delivers msg to every live session in roomID, the sender
// included. With a non-empty sender the line is formatted as "sender: msg";
// otherwise msg is a system notice. It returns the number of sessions the
// line was queued for.
func (b *Broadcaster) BroadcastToRoom(msg, roomID, sender string) int {
	line := msg
	if sender != "" {
		line = formatChatLine(sender, msg)
	}

	delivered := 0
	for _, s := range b.registry.InRoom(roomID) {
		if b.deliver(s, line) {
			delivered++
		}
	}

	return delivered
}

// BroadcastAll queues lines as one unit to every live session.
func (b *Broadcaster) BroadcastAll(lines ...string) int {
	delivered := 0
	for _, s := range b.registry.AllLive() {
		if b.deliver(s, lines...) {
			delivered++
		}
	}

	return delivered
}

func (b *Broadcaster) deliver(s Session, lines ...string) bool {
	if s.Client.queueMessage(lines...) {
		return true
	}

	b.stats.Incr(stats.DroppedMessages)
	return false
}
