package server

import (
	"testing"
	"time"

	"github.com/npezzotti/roomchat/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_roomListBlock(t *testing.T) {
	rooms := []types.Room{
		{Name: "General", AccessCode: types.PublicAccessCode},
		{Name: "vault", AccessCode: "s3cret"},
	}

	assert.Equal(t, []string{
		RoomListBegin,
		"General 🔓",
		"vault 🔒",
		RoomListEnd,
	}, roomListBlock(rooms))

	assert.Equal(t, []string{RoomListBegin, RoomListEnd}, roomListBlock(nil), "expected empty block")
}

func Test_historyBlock(t *testing.T) {
	t.Run("no messages", func(t *testing.T) {
		assert.Equal(t, []string{
			ChatHistoryBegin,
			"No previous messages in this room.",
			ChatHistoryEnd,
		}, historyBlock(nil))
	})
	t.Run("messages oldest first", func(t *testing.T) {
		ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
		msgs := []types.Message{
			{Username: "alice", Content: "hi", CreatedAt: ts},
			{Username: "bob", Content: "hey", CreatedAt: ts.Add(time.Minute)},
		}

		assert.Equal(t, []string{
			ChatHistoryBegin,
			"[2024-03-09 14:05:07] alice: hi",
			"[2024-03-09 14:06:07] bob: hey",
			ChatHistoryEnd,
		}, historyBlock(msgs))
	})
}

func Test_userListBlock(t *testing.T) {
	assert.Equal(t, []string{
		UserListBegin,
		"alice (online)",
		"bob (online)",
		"ghost (offline)",
		UserListEnd,
	}, userListBlock([]string{"alice", "bob"}, []string{"ghost"}))
}

func Test_splitFirst(t *testing.T) {
	tcases := []struct {
		input string
		first string
		rest  string
	}{
		{input: "/join lounge", first: "/join", rest: "lounge"},
		{input: "/join   lounge   code", first: "/join", rest: "lounge   code"},
		{input: "/rooms", first: "/rooms", rest: ""},
		{input: "/rooms   ", first: "/rooms", rest: ""},
		{input: "  /help", first: "/help", rest: ""},
		{input: "lounge s3cret extra", first: "lounge", rest: "s3cret extra"},
		{input: "", first: "", rest: ""},
	}

	for _, tc := range tcases {
		t.Run(tc.input, func(t *testing.T) {
			first, rest := splitFirst(tc.input)
			assert.Equal(t, tc.first, first, "unexpected first token")
			assert.Equal(t, tc.rest, rest, "unexpected remainder")
		})
	}
}
