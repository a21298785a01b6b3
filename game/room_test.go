package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sauravnr/ludopi-sub000/board"
)

// newTestRoom pins the color assignment order so tests are
// deterministic: user N gets mode.Colors()[N].
func newTestRoom(mode Mode) *Room {
	r := NewRoom("TEST01", mode)
	r.setShuffledColors(mode.Colors())
	return r
}

// fillRoom joins users u1..uN and returns the room started by the host.
func newStartedRoom(t *testing.T, mode Mode) *Room {
	t.Helper()

	r := newTestRoom(mode)
	for i := 1; i <= mode.Capacity(); i++ {
		_, err := r.Join(fmt.Sprintf("conn%d", i), fmt.Sprintf("u%d", i), fmt.Sprintf("user%d", i))
		require.NoError(t, err)
	}

	_, err := r.Start("u1")
	require.NoError(t, err)

	return r
}

func TestJoinAssignsDistinctColors(t *testing.T) {
	r := newTestRoom(TwoPlayer)

	res1, err := r.Join("conn1", "u1", "alice")
	require.NoError(t, err)
	require.Equal(t, board.Red, res1.Player.Color)

	res2, err := r.Join("conn2", "u2", "bob")
	require.NoError(t, err)
	require.Equal(t, board.Yellow, res2.Player.Color)

	_, err = r.Join("conn3", "u3", "carol")
	require.ErrorIs(t, err, ErrRoomFull)

	require.Len(t, r.Players(), 2)
}

func TestReconnectReusesSlot(t *testing.T) {
	r := newTestRoom(TwoPlayer)

	first, err := r.Join("connA", "u1", "alice")
	require.NoError(t, err)

	second, err := r.Join("connB", "u1", "alice")
	require.NoError(t, err)
	require.True(t, second.Rejoined)
	require.Equal(t, first.Player.Color, second.Player.Color)

	players := r.Players()
	require.Len(t, players, 1)
	require.Equal(t, "connB", players[0].ConnectionID)
}

func TestJoinRejectedOnceStarted(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	_, err := r.Join("conn9", "u9", "mallory")
	require.ErrorIs(t, err, ErrRoomFull)

	// Members can still reconnect.
	res, err := r.Join("conn1b", "u1", "user1")
	require.NoError(t, err)
	require.True(t, res.Rejoined)
	require.True(t, res.Started)
}

func TestStartValidation(t *testing.T) {
	r := newTestRoom(TwoPlayer)

	_, err := r.Join("conn1", "u1", "alice")
	require.NoError(t, err)

	_, err = r.Start("u1")
	require.ErrorIs(t, err, ErrRoomNotReady)

	_, err = r.Join("conn2", "u2", "bob")
	require.NoError(t, err)

	_, err = r.Start("u2")
	require.ErrorIs(t, err, ErrNotHost)

	res, err := r.Start("u1")
	require.NoError(t, err)
	require.Equal(t, board.Red, res.FirstTurn)
	require.True(t, r.Started())

	_, err = r.Start("u1")
	require.ErrorIs(t, err, ErrStarted)
}

func TestStartOrdersTurnsFromHostColor(t *testing.T) {
	r := NewRoom("TEST02", FourPlayer)
	// Host draws yellow; turn order must rotate the fixed priority so
	// yellow leads.
	r.setShuffledColors([]board.Color{board.Yellow, board.Blue, board.Red, board.Green})

	for i := 1; i <= 4; i++ {
		_, err := r.Join(fmt.Sprintf("conn%d", i), fmt.Sprintf("u%d", i), fmt.Sprintf("user%d", i))
		require.NoError(t, err)
	}

	res, err := r.Start("u1")
	require.NoError(t, err)
	require.Equal(t, board.Yellow, res.FirstTurn)

	colors := make([]board.Color, 0, 4)
	for _, p := range res.Players {
		colors = append(colors, p.Color)
	}
	require.Equal(t, []board.Color{board.Yellow, board.Blue, board.Red, board.Green}, colors)

	// Participants snapshot matches the committed order.
	parts := r.Participants()
	require.Len(t, parts, 4)
	require.Equal(t, board.Yellow, parts[0].Color)
}

func TestLeaveHostFlag(t *testing.T) {
	r := newTestRoom(TwoPlayer)

	_, err := r.Join("conn1", "u1", "alice")
	require.NoError(t, err)
	_, err = r.Join("conn2", "u2", "bob")
	require.NoError(t, err)

	res, ok := r.Leave("u2", "conn2")
	require.True(t, ok)
	require.False(t, res.WasHost)
	require.False(t, res.Empty)
	require.Len(t, res.Players, 1)

	res, ok = r.Leave("u1", "conn1")
	require.True(t, ok)
	require.True(t, res.WasHost)
	require.True(t, res.Empty)
}

func TestLeaveIgnoresStaleConnection(t *testing.T) {
	r := newTestRoom(TwoPlayer)

	_, err := r.Join("connA", "u1", "alice")
	require.NoError(t, err)

	// Reconnect replaces the connection; the old one dropping later
	// must not evict the live slot.
	_, err = r.Join("connB", "u1", "alice")
	require.NoError(t, err)

	_, ok := r.Leave("u1", "connA")
	require.False(t, ok)
	require.Len(t, r.Players(), 1)

	_, ok = r.Leave("u1", "connB")
	require.True(t, ok)
	require.Empty(t, r.Players())
}
