package server

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode"

	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/types"
)

// RoomDirectory is the server's view of the durable room catalogue.
type RoomDirectory struct {
	db          database.ChatRepository
	log         *log.Logger
	defaultName string

	mu          sync.RWMutex
	defaultRoom types.Room
}

func NewRoomDirectory(db database.ChatRepository, defaultName string, l *log.Logger) *RoomDirectory {
	return &RoomDirectory{
		db:          db,
		log:         l,
		defaultName: defaultName,
	}
}

// EnsureDefaultRoom finds the default room, creating it as a public room if
// it does not exist yet.
func (d *RoomDirectory) EnsureDefaultRoom() (types.Room, error) {
	room, err := d.db.GetRoomByName(d.defaultName)
	if errors.Is(err, database.ErrNotFound) {
		room, err = d.db.CreateRoom(database.CreateRoomParams{
			Name:       d.defaultName,
			AccessCode: types.PublicAccessCode,
		})
		if errors.Is(err, database.ErrConflict) {
			room, err = d.db.GetRoomByName(d.defaultName)
		}
		if err == nil {
			d.log.Printf("created default room %q", room.Name)
		}
	}
	if err != nil {
		return types.Room{}, fmt.Errorf("ensure default room %q: %w", d.defaultName, err)
	}

	d.mu.Lock()
	d.defaultRoom = room
	d.mu.Unlock()

	return room, nil
}

func (d *RoomDirectory) DefaultRoom() types.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.defaultRoom
}

// Create persists a new room. An empty accessCode makes the room public.
func (d *RoomDirectory) Create(name, accessCode string) (types.Room, error) {
	if !validRoomName(name) {
		return types.Room{}, ErrInvalidRoomName
	}
	if accessCode == "" {
		accessCode = types.PublicAccessCode
	}

	if _, err := d.Find(name); err == nil {
		return types.Room{}, ErrRoomExists
	} else if !errors.Is(err, ErrRoomNotFound) {
		return types.Room{}, err
	}

	room, err := d.db.CreateRoom(database.CreateRoomParams{
		Name:       name,
		AccessCode: accessCode,
	})
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return types.Room{}, ErrRoomExists
		}
		return types.Room{}, fmt.Errorf("create room %q: %w", name, err)
	}

	return room, nil
}

func (d *RoomDirectory) Find(name string) (types.Room, error) {
	room, err := d.db.GetRoomByName(name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.Room{}, ErrRoomNotFound
		}
		return types.Room{}, fmt.Errorf("find room %q: %w", name, err)
	}

	return room, nil
}

func (d *RoomDirectory) Get(id string) (types.Room, error) {
	room, err := d.db.GetRoomByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.Room{}, ErrRoomNotFound
		}
		return types.Room{}, fmt.Errorf("get room %q: %w", id, err)
	}

	return room, nil
}

func (d *RoomDirectory) List() ([]types.Room, error) {
	rooms, err := d.db.ListRooms()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	return rooms, nil
}

// CheckAccess succeeds for a public room or an exactly matching code.
func CheckAccess(room types.Room, supplied string) error {
	if room.IsPublic() || room.AccessCode == supplied {
		return nil
	}

	return ErrInvalidAccessCode
}

func validRoomName(name string) bool {
	return name != "" && !strings.ContainsFunc(name, unicode.IsSpace)
}
