package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sauravnr/ludopi-sub000/board"
)

func intPtr(v int) *int { return &v }

func TestSpinValidation(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	// u1 plays red and opens the game.
	require.ErrorIs(t, r.Spin("u2", board.Yellow, 4), ErrNotYourTurn)
	require.ErrorIs(t, r.Spin("u2", board.Red, 4), ErrColorNotOwned)
	require.ErrorIs(t, r.Spin("u9", board.Red, 4), ErrNotMember)
	require.ErrorIs(t, r.Spin("u1", board.Red, 7), ErrBadDiceValue)

	require.NoError(t, r.Spin("u1", board.Red, 4))
	require.ErrorIs(t, r.Spin("u1", board.Red, 4), ErrAlreadyRolled)
}

func TestMoveRequiresRoll(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	_, err := r.Move("u1", board.Red, intPtr(0), 6)
	require.ErrorIs(t, err, ErrNoRoll)
}

func TestEnterFromHomeOnSix(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	require.NoError(t, r.Spin("u1", board.Red, 6))
	res, err := r.Move("u1", board.Red, intPtr(0), 6)
	require.NoError(t, err)

	require.Equal(t, TokenSteps{0, board.StepHome, board.StepHome, board.StepHome}, res.UpdatedSteps[board.Red])
	// A six grants the same color another roll.
	require.True(t, res.SameTurn)

	turn, ok := r.CurrentTurnColor()
	require.True(t, ok)
	require.Equal(t, board.Red, turn)
}

func TestHomeTokenStaysWithoutSix(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	require.NoError(t, r.Spin("u1", board.Red, 3))
	res, err := r.Move("u1", board.Red, intPtr(0), 3)
	require.NoError(t, err)

	require.Nil(t, res.UpdatedSteps)
	require.False(t, res.SameTurn)
	require.Equal(t, board.Yellow, res.NextTurn)
}

func TestNoLegalTokenStillConsumesRoll(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	require.NoError(t, r.Spin("u1", board.Red, 2))
	res, err := r.Move("u1", board.Red, nil, 2)
	require.NoError(t, err)

	require.Nil(t, res.UpdatedSteps)
	require.Equal(t, board.Yellow, res.NextTurn)

	// It is yellow's roll now.
	require.NoError(t, r.Spin("u2", board.Yellow, 1))
}

func TestOvershootRejectedButConsumed(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)
	r.setSteps(board.Red, TokenSteps{board.PathLen - 3, board.StepHome, board.StepHome, board.StepHome})

	require.NoError(t, r.Spin("u1", board.Red, 4))
	res, err := r.Move("u1", board.Red, intPtr(0), 4)
	require.NoError(t, err)

	require.Nil(t, res.UpdatedSteps)
	steps, _ := r.Steps(board.Red)
	require.Equal(t, board.PathLen-3, steps[0])
	require.Equal(t, board.Yellow, res.NextTurn)
}

func TestExactLandingFinishesToken(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)
	r.setSteps(board.Red, TokenSteps{board.PathLen - 5, 10, board.StepHome, board.StepHome})

	require.NoError(t, r.Spin("u1", board.Red, 4))
	res, err := r.Move("u1", board.Red, intPtr(0), 4)
	require.NoError(t, err)

	require.Equal(t, board.StepFinished, res.UpdatedSteps[board.Red][0])
	require.False(t, res.ColorFinished)
	// Finished one token with others active: roll again.
	require.True(t, res.SameTurn)
}

func TestCaptureSendsOpponentHome(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	// Red moving from step 26 with a 4 lands on ring cell 30; yellow's
	// step 4 occupies the same cell, and 30 is not safe.
	r.setSteps(board.Red, TokenSteps{26, board.StepHome, board.StepHome, board.StepHome})
	r.setSteps(board.Yellow, TokenSteps{4, board.StepHome, board.StepHome, board.StepHome})
	require.Equal(t, board.Cell(board.Red, 30), board.Cell(board.Yellow, 4))

	require.NoError(t, r.Spin("u1", board.Red, 4))
	res, err := r.Move("u1", board.Red, intPtr(0), 4)
	require.NoError(t, err)

	require.True(t, res.Capture)
	require.Equal(t, 30, res.UpdatedSteps[board.Red][0])
	require.Equal(t, board.StepHome, res.UpdatedSteps[board.Yellow][0])
	// A capture grants another roll.
	require.True(t, res.SameTurn)
}

func TestNoCaptureOnSafeCell(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	// Ring cell 34 is safe; red lands there on top of yellow.
	r.setSteps(board.Red, TokenSteps{30, board.StepHome, board.StepHome, board.StepHome})
	r.setSteps(board.Yellow, TokenSteps{8, board.StepHome, board.StepHome, board.StepHome})
	require.Equal(t, board.Cell(board.Red, 34), board.Cell(board.Yellow, 8))
	require.True(t, board.IsSafe(board.Cell(board.Red, 34)))

	require.NoError(t, r.Spin("u1", board.Red, 4))
	res, err := r.Move("u1", board.Red, intPtr(0), 4)
	require.NoError(t, err)

	require.False(t, res.Capture)
	steps, _ := r.Steps(board.Yellow)
	require.Equal(t, 8, steps[0])
	require.Equal(t, board.Yellow, res.NextTurn)
}

func TestThreeConsecutiveSixesForfeit(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	// First six enters a token, second advances it, both keep the turn.
	require.NoError(t, r.Spin("u1", board.Red, 6))
	res, err := r.Move("u1", board.Red, intPtr(0), 6)
	require.NoError(t, err)
	require.True(t, res.SameTurn)

	require.NoError(t, r.Spin("u1", board.Red, 6))
	res, err = r.Move("u1", board.Red, intPtr(0), 6)
	require.NoError(t, err)
	require.True(t, res.SameTurn)

	before, _ := r.Steps(board.Red)

	// Third six forfeits the whole roll regardless of the token sent.
	require.NoError(t, r.Spin("u1", board.Red, 6))
	res, err = r.Move("u1", board.Red, intPtr(0), 6)
	require.NoError(t, err)

	require.True(t, res.Forfeited)
	require.Nil(t, res.UpdatedSteps)
	require.Equal(t, board.Yellow, res.NextTurn)

	after, _ := r.Steps(board.Red)
	require.Equal(t, before, after)

	turn, ok := r.CurrentTurnColor()
	require.True(t, ok)
	require.Equal(t, board.Yellow, turn)
}

func TestSixCounterResetsOnOtherValue(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)

	require.NoError(t, r.Spin("u1", board.Red, 6))
	_, err := r.Move("u1", board.Red, intPtr(0), 6)
	require.NoError(t, err)

	require.NoError(t, r.Spin("u1", board.Red, 2))
	res, err := r.Move("u1", board.Red, intPtr(0), 2)
	require.NoError(t, err)
	require.False(t, res.Forfeited)
	require.Equal(t, board.Yellow, res.NextTurn)

	// Yellow passes straight back.
	require.NoError(t, r.Spin("u2", board.Yellow, 1))
	_, err = r.Move("u2", board.Yellow, nil, 1)
	require.NoError(t, err)

	// Two more sixes must not forfeit: the run was broken by the 2.
	require.NoError(t, r.Spin("u1", board.Red, 6))
	res, err = r.Move("u1", board.Red, intPtr(0), 6)
	require.NoError(t, err)
	require.False(t, res.Forfeited)

	require.NoError(t, r.Spin("u1", board.Red, 6))
	res, err = r.Move("u1", board.Red, intPtr(0), 6)
	require.NoError(t, err)
	require.False(t, res.Forfeited)
}

func TestTwoPlayerFinishEndsMatch(t *testing.T) {
	r := newStartedRoom(t, TwoPlayer)
	r.setSteps(board.Red, TokenSteps{board.PathLen - 5, board.StepFinished, board.StepFinished, board.StepFinished})

	require.NoError(t, r.Spin("u1", board.Red, 4))
	res, err := r.Move("u1", board.Red, intPtr(0), 4)
	require.NoError(t, err)

	require.True(t, res.ColorFinished)
	require.True(t, res.GameOver)
	// The lone remaining color places second by elimination.
	require.Equal(t, []board.Color{board.Red, board.Yellow}, res.FinishOrder)

	_, ok := r.CurrentTurnColor()
	require.False(t, ok)
}

func TestFourPlayerEndsAtThreeFinishers(t *testing.T) {
	r := newStartedRoom(t, FourPlayer)

	finishNext := func(userID string, color board.Color) MoveResult {
		t.Helper()
		r.setSteps(color, TokenSteps{board.PathLen - 5, board.StepFinished, board.StepFinished, board.StepFinished})
		require.NoError(t, r.Spin(userID, color, 4))
		res, err := r.Move(userID, color, intPtr(0), 4)
		require.NoError(t, err)
		require.True(t, res.ColorFinished)
		return res
	}

	res := finishNext("u1", board.Red)
	require.False(t, res.GameOver)
	require.Equal(t, board.Green, res.NextTurn)

	res = finishNext("u2", board.Green)
	require.False(t, res.GameOver)
	require.Equal(t, board.Yellow, res.NextTurn)

	// Third finisher ends the match; blue places fourth by elimination.
	res = finishNext("u3", board.Yellow)
	require.True(t, res.GameOver)
	require.Equal(t, []board.Color{board.Red, board.Green, board.Yellow, board.Blue}, res.FinishOrder)

	require.Equal(t, []board.Color{board.Red, board.Green, board.Yellow, board.Blue}, r.FinishOrder())
}

func TestFinishedColorLeavesRotation(t *testing.T) {
	r := newStartedRoom(t, FourPlayer)
	r.setSteps(board.Red, TokenSteps{board.PathLen - 5, board.StepFinished, board.StepFinished, board.StepFinished})

	require.NoError(t, r.Spin("u1", board.Red, 4))
	res, err := r.Move("u1", board.Red, intPtr(0), 4)
	require.NoError(t, err)
	require.True(t, res.ColorFinished)
	require.False(t, res.GameOver)

	players := r.Players()
	require.Len(t, players, 3)
	for _, p := range players {
		require.NotEqual(t, board.Red, p.Color)
	}

	// Red can no longer act, green is up.
	require.ErrorIs(t, r.Spin("u1", board.Red, 3), ErrNotMember)
	require.NoError(t, r.Spin("u2", board.Green, 3))

	// Stats attribution still knows who played red.
	parts := r.Participants()
	require.Len(t, parts, 4)
}
