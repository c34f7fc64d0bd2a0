package server

import "errors"

var (
	ErrServerClosed       = errors.New("chat server closed")
	ErrUsernameTaken      = errors.New("username is already connected")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrRoomExists         = errors.New("room already exists")
	ErrRoomNotFound       = errors.New("room does not exist")
	ErrInvalidRoomName    = errors.New("invalid room name")
	ErrInvalidAccessCode  = errors.New("invalid access code")
)
