package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/testutil"
)

// newLoading migrates a fresh lobby with the given players into the loading stage
func newLoading(t *testing.T, names ...string) (*LoadingRoom, []string, []*testutil.SimpleClient) {
	t.Helper()

	lobby, ids, clients := newLobby(t, time.Minute, names...)
	loading := NewLoadingRoom(lobby)
	loading.Ready()
	return loading, ids, clients
}

func TestLoading_ReadyNotifiesAllPlayers(t *testing.T) {
	t.Parallel()

	_, _, clients := newLoading(t, "alice", "bob")

	for _, c := range clients {
		assert.Equal(t, 1, c.CountOfType(protocol.MsgStartLoading))

		var roster protocol.LoadingSyncPayload
		require.True(t, c.DecodeLastOfType(protocol.MsgLoadingSync, &roster))
		require.Len(t, roster, 2)
		assert.False(t, roster[0].Connected)
		assert.False(t, roster[1].Connected)
	}
}

func TestLoading_LoadedUpdatesRoster(t *testing.T) {
	t.Parallel()

	l, ids, clients := newLoading(t, "alice", "bob")

	l.HandleMessage(ids[0], codec.MustNewMessage(protocol.MsgLoaded, nil))

	var roster protocol.LoadingSyncPayload
	require.True(t, clients[1].DecodeLastOfType(protocol.MsgLoadingSync, &roster))
	assert.True(t, roster[0].Connected)
	assert.False(t, roster[1].Connected)
}

func TestLoading_DuplicateLoadedIsRejectedWithoutBroadcast(t *testing.T) {
	t.Parallel()

	l, ids, clients := newLoading(t, "alice", "bob")

	l.HandleMessage(ids[0], codec.MustNewMessage(protocol.MsgLoaded, nil))
	syncsBefore := clients[1].CountOfType(protocol.MsgLoadingSync)

	l.HandleMessage(ids[0], codec.MustNewMessage(protocol.MsgLoaded, nil))
	assert.Equal(t, protocol.ErrCodeAlreadyLoaded, lastErrorCode(t, clients[0]))
	assert.Equal(t, syncsBefore, clients[1].CountOfType(protocol.MsgLoadingSync))
}

func TestLoading_AllLoadedMigratesToGame(t *testing.T) {
	t.Parallel()

	l, ids, _ := newLoading(t, "alice", "bob")

	next := make(chan Stage, 1)
	l.SetHooks(nil, func(s Stage) { next <- s })

	for _, id := range ids {
		l.HandleMessage(id, codec.MustNewMessage(protocol.MsgLoaded, nil))
	}

	select {
	case s := <-next:
		game, ok := s.(*GameRoom)
		require.True(t, ok)

		// Identity carries over into the game stage
		p, found := game.findConnected(ids[1])
		require.True(t, found)
		assert.Equal(t, "bob", p.Name)
	default:
		t.Fatal("expected migration to the game stage")
	}
}

func TestLoading_ReconnectKeepsLoadedFlag(t *testing.T) {
	t.Parallel()

	l, ids, _ := newLoading(t, "alice", "bob")

	l.HandleMessage(ids[0], codec.MustNewMessage(protocol.MsgLoaded, nil))
	l.RemovePlayer(ids[0])

	c := testutil.NewSimpleClient("alice")
	newID, err := l.AddPlayer("alice", c)
	require.NoError(t, err)
	assert.Equal(t, ids[0], newID)

	p, ok := l.findConnected(ids[0])
	require.True(t, ok)
	assert.True(t, p.Loaded)

	// The rejoining client is told to start loading as well
	assert.Equal(t, 1, c.CountOfType(protocol.MsgStartLoading))
}
