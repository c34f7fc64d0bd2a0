package database

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/roomchat/internal/types"
)

var _ ChatRepository = (*MemoryRepository)(nil)

// MemoryRepository is a process local ChatRepository. Nothing survives a
// restart; it backs the "memory" driver and the server's tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]types.User
	rooms    map[string]types.Room
	order    []string
	members  map[string][]string
	messages map[string][]types.Message
	nextID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]types.User),
		rooms:    make(map[string]types.Room),
		members:  make(map[string][]string),
		messages: make(map[string][]types.Message),
	}
}

func (m *MemoryRepository) Ping() error  { return nil }
func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) CreateAccount(params CreateAccountParams) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[params.Username]; ok {
		return types.User{}, fmt.Errorf("create account %q: %w", params.Username, ErrConflict)
	}

	user := types.User{
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Anonymous:    params.Anonymous,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[user.Username] = user

	return user, nil
}

func (m *MemoryRepository) GetAccount(username string) (types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (m *MemoryRepository) UsernameExists(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.users[username]
	return ok, nil
}

func (m *MemoryRepository) UpdateLastSeen(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.users[username]; ok {
		user.LastSeen = time.Now().UTC()
		m.users[username] = user
	}
	return nil
}

func (m *MemoryRepository) CreateRoom(params CreateRoomParams) (types.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rooms {
		if r.Name == params.Name {
			return types.Room{}, fmt.Errorf("create room %q: %w", params.Name, ErrConflict)
		}
	}

	room := types.Room{
		ID:         uuid.NewString(),
		Name:       params.Name,
		AccessCode: params.AccessCode,
		CreatedAt:  time.Now().UTC(),
	}
	m.rooms[room.ID] = room
	m.order = append(m.order, room.ID)

	return room, nil
}

func (m *MemoryRepository) GetRoomByID(id string) (types.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[id]
	if !ok {
		return types.Room{}, ErrNotFound
	}
	return room, nil
}

func (m *MemoryRepository) GetRoomByName(name string) (types.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rooms {
		if r.Name == name {
			return r, nil
		}
	}
	return types.Room{}, ErrNotFound
}

func (m *MemoryRepository) ListRooms() ([]types.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]types.Room, 0, len(m.order))
	for _, id := range m.order {
		rooms = append(rooms, m.rooms[id])
	}
	return rooms, nil
}

func (m *MemoryRepository) AddUserToRoom(username, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[roomID]; !ok {
		return fmt.Errorf("add member to room %q: %w", roomID, ErrNotFound)
	}

	if !slices.Contains(m.members[roomID], username) {
		m.members[roomID] = append(m.members[roomID], username)
	}
	return nil
}

func (m *MemoryRepository) RemoveUserFromRoom(username, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.members[roomID] = slices.DeleteFunc(m.members[roomID], func(u string) bool {
		return u == username
	})
	return nil
}

func (m *MemoryRepository) GetUsersInRoom(roomID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.members[roomID]), nil
}

func (m *MemoryRepository) CreateMessage(params CreateMessageParams) (types.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	msg := types.Message{
		ID:        m.nextID,
		RoomID:    params.RoomID,
		Username:  params.Username,
		Content:   params.Content,
		CreatedAt: time.Now().UTC(),
	}
	m.messages[params.RoomID] = append(m.messages[params.RoomID], msg)

	return msg, nil
}

func (m *MemoryRepository) GetRecentMessages(roomID string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.messages[roomID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return slices.Clone(all), nil
}
