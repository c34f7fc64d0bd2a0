package server

import (
	"errors"
	"testing"
	"time"

	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/stats"
	"github.com/npezzotti/roomchat/internal/testutil"
	"github.com/npezzotti/roomchat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewChatServer(t *testing.T) {
	t.Run("registers metrics and default room", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		for _, name := range []string{
			stats.NumConnections,
			stats.NumActiveClients,
			stats.NumMessages,
			stats.NumRoomsCreated,
			stats.DroppedMessages,
		} {
			su.On("RegisterMetric", name).Once()
		}
		repo := database.NewMemoryRepository()

		cs, err := NewChatServer(testutil.TestLogger(t), repo, su, testConfig())

		require.NoError(t, err)
		assert.Equal(t, "General", cs.rooms.DefaultRoom().Name)
		su.AssertExpectations(t)

		_, err = repo.GetRoomByName("General")
		assert.NoError(t, err, "expected default room to be persisted")
	})
	t.Run("store unavailable", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("RegisterMetric", mock.Anything).Maybe()
		repo := &database.MockChatRepository{}
		repo.On("GetRoomByName", "General").Return(types.Room{}, errors.New("connection refused"))

		_, err := NewChatServer(testutil.TestLogger(t), repo, su, testConfig())
		assert.Error(t, err, "expected server construction to fail without a default room")
	})
}

func TestChatServer_HandleConn(t *testing.T) {
	cs := newTestChatServer(t, database.NewMemoryRepository(), newTestStats(t))
	cs.nameGen = fixedNameGen("Anon-pipe")

	conn := &fakeConn{lines: []string{LoginAnonymous, "/rooms", "/exit"}}
	cs.HandleConn(conn)

	assert.Eventually(t, conn.Closed, time.Second, 10*time.Millisecond, "expected session to end after /exit")
	ctx, cancel := contextWithTimeout(t)
	defer cancel()
	require.NoError(t, cs.Shutdown(ctx))

	written := conn.Written()
	require.NotEmpty(t, written)
	assert.Equal(t, []string{RespLoginSuccess, "Anon-pipe"}, written[0], "expected handshake reply first")
	assert.Equal(t, []string{RoomListBegin, "General 🔓", RoomListEnd}, written[len(written)-1],
		"expected /rooms reply to be the last unit written")
	assert.Empty(t, cs.registry.AllLive(), "expected session to be deregistered")
}

type panicConn struct {
	fakeConn
	reads int
}

func (p *panicConn) ReadLine() (string, error) {
	p.reads++
	if p.reads == 1 {
		return LoginAnonymous, nil
	}
	panic("boom")
}

func TestChatServer_RecoversWorkerPanic(t *testing.T) {
	cs := newTestChatServer(t, database.NewMemoryRepository(), newTestStats(t))
	conn := &panicConn{}

	cs.HandleConn(conn)

	assert.Eventually(t, conn.Closed, time.Second, 10*time.Millisecond, "expected panicking session to be closed")
	ctx, cancel := contextWithTimeout(t)
	defer cancel()
	require.NoError(t, cs.Shutdown(ctx))
	assert.Empty(t, cs.registry.AllLive(), "expected panicking session to be deregistered")
}

func TestChatServer_HandleConnAfterShutdown(t *testing.T) {
	cs := newTestChatServer(t, database.NewMemoryRepository(), newTestStats(t))
	ctx, cancel := contextWithTimeout(t)
	defer cancel()
	require.NoError(t, cs.Shutdown(ctx))

	conn := &fakeConn{lines: []string{LoginAnonymous}}
	cs.HandleConn(conn)

	assert.True(t, conn.Closed(), "expected connection to be refused during shutdown")
	assert.Empty(t, conn.Written())
}
