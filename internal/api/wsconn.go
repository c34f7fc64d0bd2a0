package api

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// wsConn presents a WebSocket as a line stream. Each outbound line is one
// text frame; an inbound frame carrying several newline separated lines is
// split and its lines are returned one at a time.
type wsConn struct {
	conn          *websocket.Conn
	maxLineLength int
	pending       []string
	stop          chan struct{}
	closeOnce     sync.Once
}

func newWSConn(conn *websocket.Conn, maxLineLength int) *wsConn {
	c := &wsConn{
		conn:          conn,
		maxLineLength: maxLineLength,
		stop:          make(chan struct{}),
	}

	// room for a trailing "\r\n"
	conn.SetReadLimit(int64(maxLineLength + 2))
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go c.keepalive()

	return c
}

func (c *wsConn) keepalive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.stop:
			return
		}
	}
}

func (c *wsConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		c.pending = splitLines(string(raw))
	}

	line := c.pending[0]
	c.pending = c.pending[1:]
	if len(line) > c.maxLineLength {
		return "", bufio.ErrTooLong
	}

	return line, nil
}

// splitLines breaks a frame into lines the way a newline terminated stream
// would be read: a final terminator does not start an empty line and a
// trailing "\r" is dropped from each line.
func splitLines(frame string) []string {
	lines := strings.Split(strings.TrimSuffix(frame, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

func (c *wsConn) WriteLines(lines []string) error {
	for _, line := range lines {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return err
		}
	}

	return nil
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})

	return err
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
