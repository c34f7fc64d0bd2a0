package server

import (
	"errors"

	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/stats"
)

// handshake runs the login exchange. It returns the session's username and
// whether it is anonymous; ok is false when the connection must be closed.
func (c *Client) handshake() (username string, anonymous bool, ok bool) {
	kind, err := c.conn.ReadLine()
	if err != nil {
		c.queueMessage(RespInvalidLoginType)
		return "", false, false
	}

	switch kind {
	case LoginAnonymous:
		return c.loginAnonymous()
	case LoginLogin:
		username, ok = c.loginUser()
		return username, false, ok
	case LoginRegister:
		username, ok = c.registerUser()
		return username, false, ok
	default:
		c.log.Printf("invalid login type %q from %s", kind, c.conn.RemoteAddr())
		c.queueMessage(RespInvalidLoginType)
		return "", false, false
	}
}

func (c *Client) readCredentials() (string, string, bool) {
	username, err := c.conn.ReadLine()
	if err != nil {
		return "", "", false
	}
	credential, err := c.conn.ReadLine()
	if err != nil {
		return "", "", false
	}

	return username, credential, true
}

func (c *Client) loginAnonymous() (string, bool, bool) {
	cs := c.chatServer

	base, err := cs.nameGen()
	if err != nil {
		c.log.Printf("anonymous login: %v", err)
		c.queueMessage(RespLoginFailed)
		return "", false, false
	}

	username, err := cs.registry.ClaimUsername(base, true)
	if err != nil {
		c.queueMessage(RespLoginFailed)
		return "", false, false
	}

	if err := cs.registerAnonymousAccount(username); err != nil {
		c.log.Printf("anonymous login %q: %v", username, err)
	}

	c.queueMessage(RespLoginSuccess, username)
	return username, true, true
}

func (c *Client) loginUser() (string, bool) {
	cs := c.chatServer

	username, credential, ok := c.readCredentials()
	if !ok {
		return "", false
	}

	if err := cs.authenticate(username, credential); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			c.log.Printf("login %q: %v", username, err)
		}
		c.queueMessage(RespLoginFailed)
		return "", false
	}

	if _, err := cs.registry.ClaimUsername(username, false); err != nil {
		c.queueMessage(RespUsernameTaken)
		return "", false
	}

	c.queueMessage(RespLoginSuccess)
	return username, true
}

func (c *Client) registerUser() (string, bool) {
	cs := c.chatServer

	username, credential, ok := c.readCredentials()
	if !ok {
		return "", false
	}

	if err := cs.registerAccount(username, credential); err != nil {
		if !errors.Is(err, database.ErrConflict) && !errors.Is(err, ErrInvalidUsername) {
			c.log.Printf("register %q: %v", username, err)
		}
		c.queueMessage(RespRegisterFailed)
		return "", false
	}

	if _, err := cs.registry.ClaimUsername(username, false); err != nil {
		c.queueMessage(RespUsernameTaken)
		return "", false
	}

	c.log.Printf("registered account %q", username)
	c.queueMessage(RespRegisterSuccess)
	return username, true
}

// enter moves a freshly authenticated client into the default room.
func (cs *ChatServer) enter(c *Client, username string, anonymous bool) {
	room := cs.rooms.DefaultRoom()
	cs.registry.Register(c, username, room.ID, anonymous)
	cs.stats.Incr(stats.NumActiveClients)
	cs.log.Printf("%q connected from %s", username, c.conn.RemoteAddr())

	if err := cs.db.AddUserToRoom(username, room.ID); err != nil {
		cs.log.Printf("add %q to room %q: %v", username, room.Name, err)
	}

	cs.broadcaster.BroadcastToRoom(joinedChatNotice(username), room.ID, "")
	cs.sendRoomList(c)
	cs.sendHistory(c, room.ID)
	cs.sendUserList(c, room.ID)
}

// disconnect tears down the session for c. It is safe to call more than once
// and for clients that never authenticated.
func (cs *ChatServer) disconnect(c *Client) {
	defer c.stopClient()

	sess, ok := cs.registry.Deregister(c)
	if !ok {
		return
	}
	cs.stats.Decr(stats.NumActiveClients)
	cs.log.Printf("%q disconnected", sess.Username)

	cs.broadcaster.BroadcastToRoom(leftChatNotice(sess.Username), sess.RoomID, "")

	if err := cs.db.RemoveUserFromRoom(sess.Username, sess.RoomID); err != nil {
		cs.log.Printf("remove %q from room: %v", sess.Username, err)
	}
	if err := cs.db.UpdateLastSeen(sess.Username); err != nil {
		cs.log.Printf("update last seen for %q: %v", sess.Username, err)
	}
}
