package database

const defaultMessageLimit = 20

type CreateAccountParams struct {
	Username     string
	PasswordHash string
	Anonymous    bool
}

type CreateRoomParams struct {
	Name       string
	AccessCode string
}

type CreateMessageParams struct {
	RoomID   string
	Username string
	Content  string
}
