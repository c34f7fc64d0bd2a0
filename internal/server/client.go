package server

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
)

// Client is the worker for one connection. The reader goroutine runs the
// handshake and message loop; writePump owns every write to conn.
type Client struct {
	conn       Conn
	chatServer *ChatServer
	log        *log.Logger
	username   string
	send       chan []string
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func NewClient(conn Conn, cs *ChatServer, l *log.Logger, queueSize int) *Client {
	return &Client{
		conn:       conn,
		chatServer: cs,
		log:        l,
		send:       make(chan []string, queueSize),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (c *Client) serve() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Printf("panic serving %s: %v", c.conn.RemoteAddr(), r)
			c.chatServer.disconnect(c)
		}
		<-c.done
	}()

	go c.writePump()

	username, anonymous, ok := c.handshake()
	if !ok {
		c.stopClient()
		return
	}

	// the connection went away while the handshake was in flight
	if c.stopped() {
		c.chatServer.registry.ReleaseUsername(username)
		c.stopClient()
		return
	}

	c.username = username
	c.chatServer.enter(c, username, anonymous)
	c.readLoop()
	c.chatServer.disconnect(c)
}

func (c *Client) readLoop() {
	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Printf("read from %q: %v", c.username, err)
			}
			return
		}

		if !c.chatServer.handleLine(c, line) {
			return
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case lines := <-c.send:
			if err := c.conn.WriteLines(lines); err != nil {
				c.log.Printf("write to %s: %v", c.conn.RemoteAddr(), err)
				return
			}
		case <-c.stop:
			c.drain()
			return
		}
	}
}

// drain writes whatever was queued before stop so final replies, such as a
// handshake rejection, reach the client before the connection closes.
func (c *Client) drain() {
	for {
		select {
		case lines := <-c.send:
			if err := c.conn.WriteLines(lines); err != nil {
				return
			}
		default:
			return
		}
	}
}

// queueMessage enqueues lines as one unit without blocking. It reports false
// if the client is stopping or its queue is full.
func (c *Client) queueMessage(lines ...string) bool {
	if c.stopped() {
		return false
	}

	select {
	case c.send <- lines:
	default:
		c.log.Printf("send queue full for %s, dropping message", c.conn.RemoteAddr())
		return false
	}

	return true
}

// stopped reports whether the client is stopping or its writer has exited.
func (c *Client) stopped() bool {
	select {
	case <-c.stop:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
