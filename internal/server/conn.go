package server

import (
	"bufio"
	"io"
	"net"
	"strings"
)

// Conn is a line oriented, full duplex client stream. ReadLine is only ever
// called by the client's reader and WriteLines only by its writer.
type Conn interface {
	ReadLine() (string, error)
	WriteLines(lines []string) error
	Close() error
	RemoteAddr() string
}

type tcpConn struct {
	conn          net.Conn
	scanner       *bufio.Scanner
	w             *bufio.Writer
	maxLineLength int
}

// NewTCPConn wraps a stream connection whose lines are newline terminated.
// Lines longer than maxLineLength bytes, not counting the terminator, fail
// the read with bufio.ErrTooLong.
func NewTCPConn(conn net.Conn, maxLineLength int) Conn {
	scanner := bufio.NewScanner(conn)
	// room for a trailing "\r\n"
	scanner.Buffer(make([]byte, 0, min(maxLineLength+2, 4096)), maxLineLength+2)

	return &tcpConn{
		conn:          conn,
		scanner:       scanner,
		w:             bufio.NewWriter(conn),
		maxLineLength: maxLineLength,
	}
}

func (c *tcpConn) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	line := strings.TrimSuffix(c.scanner.Text(), "\r")
	if len(line) > c.maxLineLength {
		return "", bufio.ErrTooLong
	}

	return line, nil
}

func (c *tcpConn) WriteLines(lines []string) error {
	for _, line := range lines {
		if _, err := c.w.WriteString(line); err != nil {
			return err
		}
		if err := c.w.WriteByte('\n'); err != nil {
			return err
		}
	}

	return c.w.Flush()
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
