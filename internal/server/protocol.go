package server

import (
	"fmt"

	"github.com/npezzotti/roomchat/internal/types"
)

// Handshake login types.
const (
	LoginAnonymous = "ANONYMOUS"
	LoginLogin     = "LOGIN"
	LoginRegister  = "REGISTER"
)

// Handshake replies.
const (
	RespLoginSuccess     = "LOGIN_SUCCESS"
	RespLoginFailed      = "LOGIN_FAILED"
	RespUsernameTaken    = "USERNAME_TAKEN"
	RespRegisterSuccess  = "REGISTER_SUCCESS"
	RespRegisterFailed   = "REGISTER_FAILED"
	RespInvalidLoginType = "INVALID_LOGIN_TYPE"
)

// Block sentinels.
const (
	UserListBegin    = "USER_LIST_BEGIN"
	UserListEnd      = "USER_LIST_END"
	RoomListBegin    = "ROOM_LIST_BEGIN"
	RoomListEnd      = "ROOM_LIST_END"
	ChatHistoryBegin = "CHAT_HISTORY_BEGIN"
	ChatHistoryEnd   = "CHAT_HISTORY_END"
)

const (
	noHistoryLine = "No previous messages in this room."
	publicMarker  = "🔓"
	privateMarker = "🔒"
	onlineMarker  = "(online)"
	offlineMarker = "(offline)"
)

const (
	unknownCommandLine  = "Unknown command. Type /help for available commands."
	joinUsageLine       = "Usage: /join <room_name> [access_code]"
	createUsageLine     = "Usage: /create <room_name> [access_code]"
	roomExistsLine      = "Room name already exists. Please choose another name."
	createFailedLine    = "Failed to create room."
	joinFailedLine      = "Failed to join room."
	invalidRoomNameLine = "Room names cannot be empty or contain whitespace."
)

var helpLines = []string{
	"Available commands:",
	"/rooms - List all available rooms",
	"/join <room_name> [access_code] - Join a room (provide access code if required)",
	"/create <room_name> [access_code] - Create a new room with optional access code",
	"/users - Show users in current room",
	"/exit - Disconnect from server",
	"/help - Show this help message",
}

func formatChatLine(sender, msg string) string {
	return sender + ": " + msg
}

func joinedChatNotice(username string) string {
	return username + " has joined the chat!"
}

func leftChatNotice(username string) string {
	return username + " has left the chat!"
}

func joinedRoomNotice(username string) string {
	return username + " has joined the room."
}

func leftRoomNotice(username string) string {
	return username + " has left the room."
}

func joinedRoomLine(roomName string) string {
	return fmt.Sprintf("You have joined room '%s'.", roomName)
}

func roomCreatedLine(roomName string) string {
	return fmt.Sprintf("Room '%s' created successfully!", roomName)
}

func roomNotFoundLine(roomName string) string {
	return fmt.Sprintf("Room '%s' does not exist.", roomName)
}

func invalidAccessCodeLine(roomName string) string {
	return fmt.Sprintf("Invalid access code for room '%s'.", roomName)
}

func roomListBlock(rooms []types.Room) []string {
	lines := make([]string, 0, len(rooms)+2)
	lines = append(lines, RoomListBegin)
	for _, room := range rooms {
		marker := privateMarker
		if room.IsPublic() {
			marker = publicMarker
		}
		lines = append(lines, room.Name+" "+marker)
	}

	return append(lines, RoomListEnd)
}

func historyBlock(messages []types.Message) []string {
	lines := make([]string, 0, len(messages)+2)
	lines = append(lines, ChatHistoryBegin)
	if len(messages) == 0 {
		lines = append(lines, noHistoryLine)
	}
	for _, msg := range messages {
		lines = append(lines, msg.String())
	}

	return append(lines, ChatHistoryEnd)
}

func userListBlock(online, offline []string) []string {
	lines := make([]string, 0, len(online)+len(offline)+2)
	lines = append(lines, UserListBegin)
	for _, name := range online {
		lines = append(lines, name+" "+onlineMarker)
	}
	for _, name := range offline {
		lines = append(lines, name+" "+offlineMarker)
	}

	return append(lines, UserListEnd)
}
