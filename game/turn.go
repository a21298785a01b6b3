package game

import "github.com/sauravnr/ludopi-sub000/board"

const maxConsecutiveSixes = 3

// MoveResult is the committed outcome of one move intent, shaped for
// the dice-rolled broadcast and the follow-up turn notification.
type MoveResult struct {
	Color board.Color
	Value int

	// UpdatedSteps holds the token arrays of every color touched by
	// the move (the mover, plus any captured colors). Nil when no
	// token state changed.
	UpdatedSteps map[board.Color]TokenSteps

	Capture       bool
	ColorFinished bool // the mover completed all four tokens
	Forfeited     bool // three consecutive sixes

	// SameTurn is set when the mover rolls again (six, capture, or
	// finished one token with others still active). Otherwise NextTurn
	// names the new current color, unless the game ended.
	SameTurn bool
	NextTurn board.Color

	GameOver    bool
	FinishOrder []board.Color
}

// Spin commits the caller to a roll. Only the face value is recorded;
// movement happens in Move.
func (r *Room) Spin(userID string, color board.Color, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validateTurnLocked(userID, color, value); err != nil {
		return err
	}

	cs := r.state[color]
	if cs.hasRolled {
		return ErrAlreadyRolled
	}

	cs.hasRolled = true
	return nil
}

// Move applies the movement, capture, forfeiture and finish logic for
// the committed roll. tokenIdx is nil when the client found no legal
// token; the roll is still consumed and turn-advance rules apply.
func (r *Room) Move(userID string, color board.Color, tokenIdx *int, value int) (MoveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validateTurnLocked(userID, color, value); err != nil {
		return MoveResult{}, err
	}

	cs := r.state[color]
	if !cs.hasRolled {
		return MoveResult{}, ErrNoRoll
	}
	if cs.hasMoved {
		return MoveResult{}, ErrAlreadyMoved
	}

	if value == 6 {
		cs.consecutiveSixes++
	} else {
		cs.consecutiveSixes = 0
	}

	res := MoveResult{Color: color, Value: value}

	// Three sixes in a row forfeit the whole roll: no token state
	// changes and the turn passes unconditionally.
	if cs.consecutiveSixes >= maxConsecutiveSixes {
		cs.consecutiveSixes = 0
		cs.hasRolled = false
		cs.hasMoved = false
		res.Forfeited = true
		res.NextTurn = r.advanceTurnLocked()
		return res, nil
	}

	moved, finishedToken := r.applyMovementLocked(cs, color, tokenIdx, value, &res)

	if moved && r.allFinishedLocked(color) {
		r.finishColorLocked(color, &res)
		return res, nil
	}

	switch {
	case finishedToken:
		// Finished one token with others still active: roll again.
		cs.hasRolled = false
		cs.hasMoved = false
		res.SameTurn = true
	case res.Capture || value == 6:
		cs.hasRolled = false
		cs.hasMoved = false
		res.SameTurn = true
	default:
		cs.hasMoved = true
		res.NextTurn = r.advanceTurnLocked()
	}

	return res, nil
}

func (r *Room) validateTurnLocked(userID string, color board.Color, value int) error {
	if !r.started || r.currentTurn < 0 {
		return ErrNotStarted
	}
	if value < 1 || value > 6 {
		return ErrBadDiceValue
	}
	if err := r.ownerOfColorLocked(userID, color); err != nil {
		return err
	}
	if r.players[r.currentTurn].Color != color {
		return ErrNotYourTurn
	}
	return nil
}

// applyMovementLocked moves the chosen token if the move is legal and
// applies any resulting captures atomically with it. Illegal choices
// (overshoot, home token without a six, bad index) change nothing but
// still consume the move attempt, like the no-legal-token case.
func (r *Room) applyMovementLocked(cs *colorState, color board.Color, tokenIdx *int, value int, res *MoveResult) (moved, finishedToken bool) {
	if tokenIdx == nil {
		return false, false
	}
	idx := *tokenIdx
	if idx < 0 || idx >= board.TokensPerColor {
		return false, false
	}

	pos := cs.steps[idx]
	var next int
	switch {
	case pos == board.StepHome:
		if value != 6 {
			return false, false
		}
		next = 0
	case board.OnPath(pos):
		next = pos + value
		if next > board.PathLen-1 {
			// Overshoot past the finish cell.
			return false, false
		}
	default:
		// Already finished.
		return false, false
	}

	if next == board.PathLen-1 {
		cs.steps[idx] = board.StepFinished
		finishedToken = true
	} else {
		cs.steps[idx] = next
	}

	res.UpdatedSteps = map[board.Color]TokenSteps{color: cs.steps}

	if !finishedToken {
		r.applyCapturesLocked(color, next, res)
	}

	return true, finishedToken
}

// applyCapturesLocked sends every opposing token on the landing cell
// back home, unless the cell is safe. Home-stretch cells have
// color-private ids, so only ring cells can ever match.
func (r *Room) applyCapturesLocked(mover board.Color, landedStep int, res *MoveResult) {
	cell := board.Cell(mover, landedStep)
	if board.IsSafe(cell) {
		return
	}

	for c, cs := range r.state {
		if c == mover {
			continue
		}
		captured := false
		for i, s := range cs.steps {
			if board.OnPath(s) && board.Cell(c, s) == cell {
				cs.steps[i] = board.StepHome
				captured = true
			}
		}
		if captured {
			res.Capture = true
			res.UpdatedSteps[c] = cs.steps
		}
	}
}

func (r *Room) allFinishedLocked(color board.Color) bool {
	for _, s := range r.state[color].steps {
		if s != board.StepFinished {
			return false
		}
	}
	return true
}

// finishColorLocked records a completed color, drops it from the turn
// rotation and decides whether the match is over: immediately in
// two-player mode, at three finishers in four-player mode (the fourth
// placed by elimination), or whenever the rotation empties.
func (r *Room) finishColorLocked(color board.Color, res *MoveResult) {
	res.ColorFinished = true
	r.finishOrder = append(r.finishOrder, color)

	cs := r.state[color]
	cs.hasRolled = false
	cs.hasMoved = false
	cs.consecutiveSixes = 0

	for i, p := range r.players {
		if p.Color == color {
			r.players = append(r.players[:i], r.players[i+1:]...)
			if i < r.currentTurn {
				r.currentTurn--
			}
			break
		}
	}

	over := len(r.players) == 0 ||
		r.mode == TwoPlayer ||
		(r.mode == FourPlayer && len(r.finishOrder) >= 3)

	if over {
		// Remaining colors place by elimination, in rotation order.
		for _, p := range r.players {
			r.finishOrder = append(r.finishOrder, p.Color)
		}
		r.currentTurn = -1
		res.GameOver = true
		res.FinishOrder = append([]board.Color(nil), r.finishOrder...)
		return
	}

	r.currentTurn = r.currentTurn % len(r.players)
	next := r.players[r.currentTurn].Color
	r.state[next].hasRolled = false
	r.state[next].hasMoved = false
	res.NextTurn = next
}

func (r *Room) advanceTurnLocked() board.Color {
	r.currentTurn = (r.currentTurn + 1) % len(r.players)
	next := r.players[r.currentTurn].Color
	r.state[next].hasRolled = false
	r.state[next].hasMoved = false
	return next
}
