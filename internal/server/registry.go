package server

import (
	"strconv"
	"sync"
)

// Session is the registry entry for an authenticated connection.
type Session struct {
	Client    *Client
	Username  string
	Anonymous bool
	RoomID    string
}

// SessionTable stores live sessions keyed by their worker.
type SessionTable interface {
	Store(c *Client, s Session)
	Load(c *Client) (Session, bool)
	LoadAndDelete(c *Client) (Session, bool)
	Update(c *Client, fn func(s *Session)) (Session, bool)
	Snapshot() []Session
}

// NameSet holds the usernames of live sessions. Add must be atomic and
// report false when the name is already present.
type NameSet interface {
	Add(name string) bool
	Remove(name string)
	Contains(name string) bool
}

type RegistryOption func(r *Registry)

func WithSessionTable(t SessionTable) RegistryOption {
	return func(r *Registry) {
		r.sessions = t
	}
}

func WithNameSet(n NameSet) RegistryOption {
	return func(r *Registry) {
		r.names = n
	}
}

// Registry tracks which sessions are live, the room each one is in and
// which usernames are claimed.
type Registry struct {
	sessions SessionTable
	names    NameSet
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: newLockedSessionTable(),
		names:    newLockedNameSet(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ClaimUsername reserves name for a new session. A registered name that is
// already live fails with ErrUsernameTaken; an anonymous name is suffixed
// with the smallest positive integer that makes it unique.
func (r *Registry) ClaimUsername(name string, anonymous bool) (string, error) {
	if r.names.Add(name) {
		return name, nil
	}
	if !anonymous {
		return "", ErrUsernameTaken
	}

	for i := 1; ; i++ {
		candidate := name + strconv.Itoa(i)
		if r.names.Add(candidate) {
			return candidate, nil
		}
	}
}

// ReleaseUsername frees a claimed name that never got a session.
func (r *Registry) ReleaseUsername(name string) {
	r.names.Remove(name)
}

// Register adds the session for c. The username must have been claimed.
func (r *Registry) Register(c *Client, username, roomID string, anonymous bool) Session {
	s := Session{
		Client:    c,
		Username:  username,
		Anonymous: anonymous,
		RoomID:    roomID,
	}
	r.sessions.Store(c, s)

	return s
}

// Deregister removes the session for c and releases its username. It
// reports false if c had no session, so repeated calls are harmless.
func (r *Registry) Deregister(c *Client) (Session, bool) {
	s, ok := r.sessions.LoadAndDelete(c)
	if !ok {
		return Session{}, false
	}
	r.names.Remove(s.Username)

	return s, true
}

func (r *Registry) Lookup(c *Client) (Session, bool) {
	return r.sessions.Load(c)
}

func (r *Registry) IsUsernameLive(name string) bool {
	return r.names.Contains(name)
}

// SetRoom moves the session for c to roomID and returns the room it left.
func (r *Registry) SetRoom(c *Client, roomID string) (string, bool) {
	var prev string
	_, ok := r.sessions.Update(c, func(s *Session) {
		prev = s.RoomID
		s.RoomID = roomID
	})

	return prev, ok
}

// AllLive returns a snapshot of every live session.
func (r *Registry) AllLive() []Session {
	return r.sessions.Snapshot()
}

// InRoom returns a snapshot of the live sessions currently in roomID.
func (r *Registry) InRoom(roomID string) []Session {
	var sessions []Session
	for _, s := range r.sessions.Snapshot() {
		if s.RoomID == roomID {
			sessions = append(sessions, s)
		}
	}

	return sessions
}

type lockedSessionTable struct {
	mu       sync.RWMutex
	sessions map[*Client]Session
}

func newLockedSessionTable() *lockedSessionTable {
	return &lockedSessionTable{sessions: make(map[*Client]Session)}
}

func (t *lockedSessionTable) Store(c *Client, s Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[c] = s
}

func (t *lockedSessionTable) Load(c *Client) (Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[c]
	return s, ok
}

func (t *lockedSessionTable) LoadAndDelete(c *Client) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[c]
	if ok {
		delete(t.sessions, c)
	}
	return s, ok
}

func (t *lockedSessionTable) Update(c *Client, fn func(s *Session)) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[c]
	if !ok {
		return Session{}, false
	}
	fn(&s)
	t.sessions[c] = s
	return s, true
}

func (t *lockedSessionTable) Snapshot() []Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sessions := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

type lockedNameSet struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

func newLockedNameSet() *lockedNameSet {
	return &lockedNameSet{names: make(map[string]struct{})}
}

func (n *lockedNameSet) Add(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.names[name]; ok {
		return false
	}
	n.names[name] = struct{}{}
	return true
}

func (n *lockedNameSet) Remove(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.names, name)
}

func (n *lockedNameSet) Contains(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.names[name]
	return ok
}
