package database

import "github.com/npezzotti/roomchat/internal/types"

// ChatRepository is the durable store behind the chat server: accounts,
// rooms, room membership and message history.
type ChatRepository interface {
	Ping() error
	Close() error

	CreateAccount(params CreateAccountParams) (types.User, error)
	GetAccount(username string) (types.User, error)
	UsernameExists(username string) (bool, error)
	UpdateLastSeen(username string) error

	CreateRoom(params CreateRoomParams) (types.Room, error)
	GetRoomByID(id string) (types.Room, error)
	GetRoomByName(name string) (types.Room, error)
	ListRooms() ([]types.Room, error)

	AddUserToRoom(username, roomID string) error
	RemoveUserFromRoom(username, roomID string) error
	GetUsersInRoom(roomID string) ([]string, error)

	CreateMessage(params CreateMessageParams) (types.Message, error)
	// GetRecentMessages returns at most limit messages of the room, oldest first.
	GetRecentMessages(roomID string, limit int) ([]types.Message, error)
}
