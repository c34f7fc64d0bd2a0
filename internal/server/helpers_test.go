package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/npezzotti/roomchat/internal/config"
	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/stats"
	"github.com/npezzotti/roomchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const readTimeout = 3 * time.Second

func testConfig() *config.Config {
	return &config.Config{
		ListenAddr:    "127.0.0.1:0",
		DefaultRoom:   "General",
		HistoryLimit:  20,
		MaxLineLength: 4096,
		SendQueueSize: 256,
		BcryptCost:    bcrypt.MinCost,
	}
}

func newTestStats(t *testing.T) *stats.StatsUpdater {
	su := stats.NewStatsUpdater()
	su.Run()
	t.Cleanup(su.Stop)
	return su
}

func newTestChatServer(t *testing.T, db database.ChatRepository, su stats.StatsProvider) *ChatServer {
	cs, err := NewChatServer(testutil.TestLogger(t), db, su, testConfig())
	require.NoError(t, err, "expected chat server to start")
	return cs
}

// startTestServer serves cs on a loopback listener and shuts it down when
// the test ends.
func startTestServer(t *testing.T, cs *ChatServer) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() {
		served <- cs.Serve(ln)
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, cs.Shutdown(ctx), "expected clean shutdown")
		assert.ErrorIs(t, <-served, ErrServerClosed, "expected Serve to report shutdown")
	})

	return ln.Addr().String()
}

// newMemoryServer starts a server over an in-memory repository.
func newMemoryServer(t *testing.T) (*ChatServer, *database.MemoryRepository, string) {
	repo := database.NewMemoryRepository()
	cs := newTestChatServer(t, repo, newTestStats(t))
	return cs, repo, startTestServer(t, cs)
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialTestClient(t *testing.T, addr string) *testClient {
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err, "expected to connect to chat server")
	t.Cleanup(func() { conn.Close() })

	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (tc *testClient) send(lines ...string) {
	for _, line := range lines {
		_, err := fmt.Fprintf(tc.conn, "%s\n", line)
		require.NoError(tc.t, err, "expected to write %q", line)
	}
}

func (tc *testClient) readLine() string {
	tc.conn.SetReadDeadline(time.Now().Add(readTimeout))
	line, err := tc.r.ReadString('\n')
	require.NoError(tc.t, err, "expected a line from the server")
	return strings.TrimSuffix(line, "\n")
}

func (tc *testClient) expectLine(want string) {
	assert.Equal(tc.t, want, tc.readLine(), "unexpected line from server")
}

// waitFor reads until want arrives and returns the lines read before it.
func (tc *testClient) waitFor(want string) []string {
	var skipped []string
	for {
		line := tc.readLine()
		if line == want {
			return skipped
		}
		skipped = append(skipped, line)
	}
}

// readBlock skips to the next begin sentinel and returns the block body.
func (tc *testClient) readBlock(begin, end string) []string {
	tc.waitFor(begin)
	return tc.waitFor(end)
}

func (tc *testClient) expectClosed() {
	tc.conn.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		_, err := tc.r.ReadString('\n')
		if err != nil {
			closed := errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET)
			assert.True(tc.t, closed, "expected server to close the connection, got %v", err)
			return
		}
	}
}

// drainEntry consumes the post-login burst: the join notice, room list,
// history and user list.
func (tc *testClient) drainEntry() {
	tc.readBlock(UserListBegin, UserListEnd)
}

func loginAnonymous(t *testing.T, addr string) (*testClient, string) {
	tc := dialTestClient(t, addr)
	tc.send(LoginAnonymous)
	tc.expectLine(RespLoginSuccess)
	name := tc.readLine()
	tc.drainEntry()
	return tc, name
}

func registerUser(t *testing.T, addr, username, password string) *testClient {
	tc := dialTestClient(t, addr)
	tc.send(LoginRegister, username, password)
	tc.expectLine(RespRegisterSuccess)
	tc.drainEntry()
	return tc
}

func loginUser(t *testing.T, addr, username, password string) *testClient {
	tc := dialTestClient(t, addr)
	tc.send(LoginLogin, username, password)
	tc.expectLine(RespLoginSuccess)
	tc.drainEntry()
	return tc
}

// fakeConn records written lines and serves reads from a fixed script.
type fakeConn struct {
	mu      sync.Mutex
	lines   []string
	written [][]string
	closed  bool
	failing bool
}

func (f *fakeConn) ReadLine() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lines) == 0 || f.closed {
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeConn) WriteLines(lines []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing || f.closed {
		return net.ErrClosed
	}
	f.written = append(f.written, lines)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) RemoteAddr() string {
	return "fake"
}

func (f *fakeConn) Written() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.written...)
}

func (f *fakeConn) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestClient(t *testing.T, queueSize int) *Client {
	return NewClient(&fakeConn{}, nil, testutil.TestLogger(t), queueSize)
}

func contextWithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func dialAfterShutdown(addr string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err == nil {
		conn.Close()
	}
	return conn, err
}
