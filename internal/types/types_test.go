package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoom_IsPublic(t *testing.T) {
	tcases := []struct {
		name string
		code string
		want bool
	}{
		{name: "public", code: "public", want: true},
		{name: "secret", code: "hunter2", want: false},
		{name: "case sensitive", code: "Public", want: false},
		{name: "empty", code: "", want: false},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Room{AccessCode: tc.code}.IsPublic())
		})
	}
}

func TestMessage_String(t *testing.T) {
	msg := Message{
		Username:  "alice",
		Content:   "hello there",
		CreatedAt: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
	}

	assert.Equal(t, "[2024-03-09 14:05:07] alice: hello there", msg.String(), "expected history line format")
}
