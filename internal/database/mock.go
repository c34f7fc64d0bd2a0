package database

import (
	"github.com/npezzotti/roomchat/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) CreateAccount(params CreateAccountParams) (types.User, error) {
	args := m.Called(params)
	return args.Get(0).(types.User), args.Error(1)
}
func (m *MockChatRepository) GetAccount(username string) (types.User, error) {
	args := m.Called(username)
	return args.Get(0).(types.User), args.Error(1)
}
func (m *MockChatRepository) UsernameExists(username string) (bool, error) {
	args := m.Called(username)
	return args.Bool(0), args.Error(1)
}
func (m *MockChatRepository) UpdateLastSeen(username string) error {
	args := m.Called(username)
	return args.Error(0)
}
func (m *MockChatRepository) CreateRoom(params CreateRoomParams) (types.Room, error) {
	args := m.Called(params)
	return args.Get(0).(types.Room), args.Error(1)
}
func (m *MockChatRepository) GetRoomByID(id string) (types.Room, error) {
	args := m.Called(id)
	return args.Get(0).(types.Room), args.Error(1)
}
func (m *MockChatRepository) GetRoomByName(name string) (types.Room, error) {
	args := m.Called(name)
	return args.Get(0).(types.Room), args.Error(1)
}
func (m *MockChatRepository) ListRooms() ([]types.Room, error) {
	args := m.Called()
	if rooms, ok := args.Get(0).([]types.Room); ok {
		return rooms, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockChatRepository) AddUserToRoom(username, roomID string) error {
	args := m.Called(username, roomID)
	return args.Error(0)
}
func (m *MockChatRepository) RemoveUserFromRoom(username, roomID string) error {
	args := m.Called(username, roomID)
	return args.Error(0)
}
func (m *MockChatRepository) GetUsersInRoom(roomID string) ([]string, error) {
	args := m.Called(roomID)
	if users, ok := args.Get(0).([]string); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockChatRepository) CreateMessage(params CreateMessageParams) (types.Message, error) {
	args := m.Called(params)
	return args.Get(0).(types.Message), args.Error(1)
}
func (m *MockChatRepository) GetRecentMessages(roomID string, limit int) ([]types.Message, error) {
	args := m.Called(roomID, limit)
	if msgs, ok := args.Get(0).([]types.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
