package database

import (
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/roomchat/internal/types"
)

func (r *SQLRepository) CreateAccount(params CreateAccountParams) (types.User, error) {
	now := time.Now().UTC()
	_, err := r.conn.Exec(
		r.rebind("INSERT INTO users (username, password_hash, is_anonymous, created_at) VALUES (?, ?, ?, ?)"),
		params.Username,
		params.PasswordHash,
		params.Anonymous,
		now,
	)
	if err != nil {
		return types.User{}, fmt.Errorf("create account %q: %w", params.Username, mapError(err))
	}

	return types.User{
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Anonymous:    params.Anonymous,
		CreatedAt:    now,
	}, nil
}

func (r *SQLRepository) GetAccount(username string) (types.User, error) {
	row := r.conn.QueryRow(
		r.rebind("SELECT username, password_hash, is_anonymous, last_seen, created_at FROM users "+
			"WHERE username = ? LIMIT 1"),
		username,
	)

	var (
		user     types.User
		lastSeen sql.NullTime
	)
	err := row.Scan(
		&user.Username,
		&user.PasswordHash,
		&user.Anonymous,
		&lastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		return types.User{}, mapError(err)
	}

	if lastSeen.Valid {
		user.LastSeen = lastSeen.Time
	}

	return user, nil
}

func (r *SQLRepository) UsernameExists(username string) (bool, error) {
	var n int
	err := r.conn.QueryRow(
		r.rebind("SELECT COUNT(1) FROM users WHERE username = ?"),
		username,
	).Scan(&n)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *SQLRepository) UpdateLastSeen(username string) error {
	_, err := r.conn.Exec(
		r.rebind("UPDATE users SET last_seen = ? WHERE username = ?"),
		time.Now().UTC(),
		username,
	)

	return err
}

func (r *SQLRepository) CreateRoom(params CreateRoomParams) (types.Room, error) {
	room := types.Room{
		ID:         uuid.NewString(),
		Name:       params.Name,
		AccessCode: params.AccessCode,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := r.conn.Exec(
		r.rebind("INSERT INTO rooms (id, name, access_code, created_at) VALUES (?, ?, ?, ?)"),
		room.ID,
		room.Name,
		room.AccessCode,
		room.CreatedAt,
	)
	if err != nil {
		return types.Room{}, fmt.Errorf("create room %q: %w", params.Name, mapError(err))
	}

	return room, nil
}

func (r *SQLRepository) GetRoomByID(id string) (types.Room, error) {
	return r.getRoom("SELECT id, name, access_code, created_at FROM rooms WHERE id = ? LIMIT 1", id)
}

func (r *SQLRepository) GetRoomByName(name string) (types.Room, error) {
	return r.getRoom("SELECT id, name, access_code, created_at FROM rooms WHERE name = ? LIMIT 1", name)
}

func (r *SQLRepository) getRoom(query string, arg string) (types.Room, error) {
	var room types.Room
	err := r.conn.QueryRow(r.rebind(query), arg).Scan(
		&room.ID,
		&room.Name,
		&room.AccessCode,
		&room.CreatedAt,
	)
	if err != nil {
		return types.Room{}, mapError(err)
	}

	return room, nil
}

func (r *SQLRepository) ListRooms() ([]types.Room, error) {
	rows, err := r.conn.Query("SELECT id, name, access_code, created_at FROM rooms ORDER BY created_at, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]types.Room, 0)
	for rows.Next() {
		var room types.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.AccessCode, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r *SQLRepository) AddUserToRoom(username, roomID string) error {
	_, err := r.conn.Exec(
		r.rebind("INSERT INTO room_members (room_id, username, joined_at) VALUES (?, ?, ?) "+
			"ON CONFLICT (room_id, username) DO NOTHING"),
		roomID,
		username,
		time.Now().UTC(),
	)

	return mapError(err)
}

func (r *SQLRepository) RemoveUserFromRoom(username, roomID string) error {
	_, err := r.conn.Exec(
		r.rebind("DELETE FROM room_members WHERE room_id = ? AND username = ?"),
		roomID,
		username,
	)

	return err
}

func (r *SQLRepository) GetUsersInRoom(roomID string) ([]string, error) {
	rows, err := r.conn.Query(
		r.rebind("SELECT username FROM room_members WHERE room_id = ? ORDER BY joined_at, username"),
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		users = append(users, username)
	}

	return users, rows.Err()
}

func (r *SQLRepository) CreateMessage(params CreateMessageParams) (types.Message, error) {
	msg := types.Message{
		RoomID:    params.RoomID,
		Username:  params.Username,
		Content:   params.Content,
		CreatedAt: time.Now().UTC(),
	}

	err := r.conn.QueryRow(
		r.rebind("INSERT INTO messages (room_id, username, content, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		msg.RoomID,
		msg.Username,
		msg.Content,
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", mapError(err))
	}

	return msg, nil
}

func (r *SQLRepository) GetRecentMessages(roomID string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	rows, err := r.conn.Query(
		r.rebind("SELECT id, room_id, username, content, created_at FROM messages "+
			"WHERE room_id = ? ORDER BY id DESC LIMIT ?"),
		roomID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0, limit)
	for rows.Next() {
		var msg types.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.Username, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// newest first from the query, callers want oldest first
	slices.Reverse(messages)
	return messages, nil
}
