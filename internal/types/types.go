package types

import (
	"fmt"
	"time"
)

// PublicAccessCode is the access code of a room that anyone may join.
const PublicAccessCode = "public"

const historyTimeLayout = "2006-01-02 15:04:05"

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Anonymous    bool      `json:"anonymous"`
	LastSeen     time.Time `json:"last_seen,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type Room struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"-"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// IsPublic reports whether the room can be joined without an access code.
func (r Room) IsPublic() bool {
	return r.AccessCode == PublicAccessCode
}

type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// String renders the message the way it appears in a chat history block.
func (m Message) String() string {
	return fmt.Sprintf("[%s] %s: %s", m.CreatedAt.UTC().Format(historyTimeLayout), m.Username, m.Content)
}
