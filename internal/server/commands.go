package server

import (
	"errors"
	"slices"
	"strings"
	"unicode"

	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/stats"
)

// handleLine processes one inbound line of an authenticated session. It
// returns false once the session has ended.
func (cs *ChatServer) handleLine(c *Client, line string) bool {
	sess, ok := cs.registry.Lookup(c)
	if !ok {
		return false
	}

	if strings.TrimSpace(line) == "" {
		return true
	}

	if strings.HasPrefix(line, "/") {
		return cs.handleCommand(c, sess, line)
	}

	cs.publish(sess, line)
	return true
}

func (cs *ChatServer) handleCommand(c *Client, sess Session, line string) bool {
	name, args := splitFirst(line)

	switch strings.ToLower(name) {
	case "/exit":
		cs.disconnect(c)
		return false
	case "/rooms":
		cs.sendRoomList(c)
	case "/join":
		roomName, accessCode := splitFirst(args)
		if roomName == "" {
			c.queueMessage(joinUsageLine)
			break
		}
		cs.joinRoom(c, sess, roomName, accessCode)
	case "/create":
		roomName, accessCode := splitFirst(args)
		if roomName == "" {
			c.queueMessage(createUsageLine)
			break
		}
		cs.createRoom(c, sess, roomName, accessCode)
	case "/users":
		cs.sendUserList(c, sess.RoomID)
	case "/help":
		c.queueMessage(helpLines...)
	default:
		c.queueMessage(unknownCommandLine)
	}

	return true
}

func (cs *ChatServer) publish(sess Session, content string) {
	cs.broadcaster.BroadcastToRoom(content, sess.RoomID, sess.Username)
	cs.stats.Incr(stats.NumMessages)

	if _, err := cs.db.CreateMessage(database.CreateMessageParams{
		RoomID:   sess.RoomID,
		Username: sess.Username,
		Content:  content,
	}); err != nil {
		cs.log.Printf("store message from %q: %v", sess.Username, err)
	}
}

func (cs *ChatServer) joinRoom(c *Client, sess Session, roomName, accessCode string) {
	room, err := cs.rooms.Find(roomName)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			c.queueMessage(roomNotFoundLine(roomName))
			return
		}
		cs.log.Printf("join %q: %v", roomName, err)
		c.queueMessage(joinFailedLine)
		return
	}

	if err := CheckAccess(room, accessCode); err != nil {
		c.queueMessage(invalidAccessCodeLine(roomName))
		return
	}

	cs.broadcaster.BroadcastToRoom(leftRoomNotice(sess.Username), sess.RoomID, "")
	if err := cs.db.RemoveUserFromRoom(sess.Username, sess.RoomID); err != nil {
		cs.log.Printf("remove %q from room: %v", sess.Username, err)
	}
	if prev, err := cs.rooms.Get(sess.RoomID); err == nil {
		cs.log.Printf("%q left room %q", sess.Username, prev.Name)
	}

	if _, ok := cs.registry.SetRoom(c, room.ID); !ok {
		return
	}
	if err := cs.db.AddUserToRoom(sess.Username, room.ID); err != nil {
		cs.log.Printf("add %q to room %q: %v", sess.Username, room.Name, err)
	}
	cs.log.Printf("%q joined room %q", sess.Username, room.Name)

	cs.broadcaster.BroadcastToRoom(joinedRoomNotice(sess.Username), room.ID, "")
	c.queueMessage(joinedRoomLine(room.Name))
	cs.sendHistory(c, room.ID)
	cs.sendUserList(c, room.ID)
}

func (cs *ChatServer) createRoom(c *Client, sess Session, roomName, accessCode string) {
	room, err := cs.rooms.Create(roomName, accessCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomExists):
			c.queueMessage(roomExistsLine)
		case errors.Is(err, ErrInvalidRoomName):
			c.queueMessage(invalidRoomNameLine)
		default:
			cs.log.Printf("create room %q: %v", roomName, err)
			c.queueMessage(createFailedLine)
		}
		return
	}

	cs.stats.Incr(stats.NumRoomsCreated)
	cs.log.Printf("%q created room %q", sess.Username, room.Name)
	c.queueMessage(roomCreatedLine(room.Name))
	cs.BroadcastRoomList()

	cs.joinRoom(c, sess, room.Name, room.AccessCode)
}

// BroadcastRoomList sends the current room list to every live session.
func (cs *ChatServer) BroadcastRoomList() {
	rooms, err := cs.rooms.List()
	if err != nil {
		cs.log.Printf("broadcast room list: %v", err)
		return
	}

	cs.broadcaster.BroadcastAll(roomListBlock(rooms)...)
}

func (cs *ChatServer) sendRoomList(c *Client) {
	rooms, err := cs.rooms.List()
	if err != nil {
		cs.log.Printf("send room list: %v", err)
	}

	c.queueMessage(roomListBlock(rooms)...)
}

func (cs *ChatServer) sendHistory(c *Client, roomID string) {
	messages, err := cs.db.GetRecentMessages(roomID, cs.cfg.HistoryLimit)
	if err != nil {
		cs.log.Printf("load history for room %q: %v", roomID, err)
	}

	c.queueMessage(historyBlock(messages)...)
}

// sendUserList lists the live sessions in the room as online, followed by
// durable members without a live session as offline.
func (cs *ChatServer) sendUserList(c *Client, roomID string) {
	var online []string
	live := make(map[string]struct{})
	for _, s := range cs.registry.InRoom(roomID) {
		online = append(online, s.Username)
		live[s.Username] = struct{}{}
	}

	members, err := cs.db.GetUsersInRoom(roomID)
	if err != nil {
		cs.log.Printf("load members of room %q: %v", roomID, err)
	}

	var offline []string
	for _, name := range members {
		if _, ok := live[name]; ok {
			continue
		}
		live[name] = struct{}{}
		offline = append(offline, name)
	}

	slices.Sort(online)
	slices.Sort(offline)
	c.queueMessage(userListBlock(online, offline)...)
}

// splitFirst splits s into its first whitespace delimited token and the
// remainder with leading whitespace removed.
func splitFirst(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}

	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
