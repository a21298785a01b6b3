// Package game owns the room aggregate, the registry of active rooms
// and the turn state machine mutating room state. Every mutation of a
// room runs under its mutex, so intents touching one room are applied
// as atomic steps while rooms stay independent of each other.
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/sauravnr/ludopi-sub000/board"
)

type Mode string

const (
	TwoPlayer  Mode = "2p"
	FourPlayer Mode = "4p"
)

func (m Mode) Capacity() int {
	if m == TwoPlayer {
		return 2
	}
	return 4
}

// Colors returns the color subset in play for the mode. Two-player
// rooms use opposite corners so both paths are fair.
func (m Mode) Colors() []board.Color {
	if m == TwoPlayer {
		return []board.Color{board.Red, board.Yellow}
	}
	return []board.Color{board.Red, board.Green, board.Yellow, board.Blue}
}

func (m Mode) Valid() bool {
	return m == TwoPlayer || m == FourPlayer
}

// Player is the transient membership record of one user in one room.
type Player struct {
	ConnectionID string      `json:"connection_id"`
	UserID       string      `json:"user_id"`
	Username     string      `json:"username"`
	Color        board.Color `json:"color"`
}

// Participant is the {user, color} snapshot taken at game start, kept
// so stats can still be attributed after a finished player's record
// leaves the turn rotation.
type Participant struct {
	UserID string      `json:"user_id"`
	Color  board.Color `json:"color"`
}

// TokenSteps holds the path step of each of a color's four tokens.
type TokenSteps [board.TokensPerColor]int

type colorState struct {
	hasRolled        bool
	hasMoved         bool
	consecutiveSixes int
	steps            TokenSteps
}

func newColorState() *colorState {
	cs := &colorState{}
	for i := range cs.steps {
		cs.steps[i] = board.StepHome
	}
	return cs
}

// Room is one lobby/session instance. All exported methods lock
// internally; callers never observe a half-applied intent.
type Room struct {
	mu sync.Mutex

	code      string
	mode      Mode
	createdAt time.Time

	lastActive     time.Time
	players        []Player
	started        bool
	shuffledColors []board.Color
	currentTurn    int // index into players; -1 once the game ends
	finishOrder    []board.Color
	participants   []Participant
	state          map[board.Color]*colorState
}

func NewRoom(code string, mode Mode) *Room {
	colors := mode.Colors()
	shuffled := make([]board.Color, len(colors))
	copy(shuffled, colors)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	state := make(map[board.Color]*colorState, len(colors))
	for _, c := range colors {
		state[c] = newColorState()
	}

	now := time.Now()

	return &Room{
		code:           code,
		mode:           mode,
		createdAt:      now,
		lastActive:     now,
		shuffledColors: shuffled,
		currentTurn:    -1,
		state:          state,
	}
}

func (r *Room) Code() string { return r.code }
func (r *Room) Mode() Mode   { return r.mode }

func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Players returns a snapshot of the current membership in turn order.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Player(nil), r.players...)
}

func (r *Room) Participants() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Participant(nil), r.participants...)
}

func (r *Room) FinishOrder() []board.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]board.Color(nil), r.finishOrder...)
}

// CurrentTurnColor names whose turn it is. The second return is false
// while the game has not started or after it has ended.
func (r *Room) CurrentTurnColor() (board.Color, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.currentTurn < 0 || r.currentTurn >= len(r.players) {
		return "", false
	}
	return r.players[r.currentTurn].Color, true
}

// Steps returns a snapshot of a color's token steps.
func (r *Room) Steps(c board.Color) (TokenSteps, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.state[c]
	if !ok {
		return TokenSteps{}, false
	}
	return cs.steps, true
}

func (r *Room) idleSince(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return now.Sub(r.lastActive)
}

func (r *Room) age(now time.Time) time.Duration {
	return now.Sub(r.createdAt)
}

func (r *Room) playerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// JoinResult describes a committed join for broadcast purposes.
type JoinResult struct {
	Player      Player
	Rejoined    bool
	Players     []Player
	Started     bool
	CurrentTurn board.Color
}

// Join claims a color for the user, or refreshes the connection of an
// existing member (reconnect reuses the slot rather than duplicating
// it). Color assignment follows the room's shuffled color order.
func (r *Room) Join(connectionID, userID, username string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	for i, p := range r.players {
		if p.UserID == userID {
			r.players[i].ConnectionID = connectionID
			return r.joinResultLocked(r.players[i], true), nil
		}
	}

	// Once gameplay begins a finished color leaves the rotation; its
	// slot must not be claimable by a stranger.
	if r.started || len(r.players) >= r.mode.Capacity() {
		return JoinResult{}, ErrRoomFull
	}

	color, ok := r.firstFreeColorLocked()
	if !ok {
		return JoinResult{}, ErrRoomFull
	}

	// Re-validate right before commit: color selection is a
	// check-then-act step and concurrent joins race for the same slot.
	if r.colorTakenLocked(color) {
		return JoinResult{}, ErrRoomFull
	}

	p := Player{
		ConnectionID: connectionID,
		UserID:       userID,
		Username:     username,
		Color:        color,
	}
	r.players = append(r.players, p)

	return r.joinResultLocked(p, false), nil
}

func (r *Room) joinResultLocked(p Player, rejoined bool) JoinResult {
	res := JoinResult{
		Player:   p,
		Rejoined: rejoined,
		Players:  append([]Player(nil), r.players...),
		Started:  r.started,
	}
	if r.started && r.currentTurn >= 0 && r.currentTurn < len(r.players) {
		res.CurrentTurn = r.players[r.currentTurn].Color
	}
	return res
}

func (r *Room) firstFreeColorLocked() (board.Color, bool) {
	for _, c := range r.shuffledColors {
		if !r.colorTakenLocked(c) {
			return c, true
		}
	}
	return "", false
}

func (r *Room) colorTakenLocked(c board.Color) bool {
	return lo.ContainsBy(r.players, func(p Player) bool { return p.Color == c })
}

// LeaveResult describes a committed departure.
type LeaveResult struct {
	Removed Player
	WasHost bool
	Empty   bool
	Players []Player
}

// Leave removes the user from the room. The second return is false if
// the user was not a member, or if connectionID is stale — a dropped
// connection that was already replaced by a reconnect must not evict
// the live slot. Host departure is authoritative: the caller is
// expected to tear the whole room down when WasHost is set.
func (r *Room) Leave(userID, connectionID string) (LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return LeaveResult{}, false
	}
	if r.players[idx].ConnectionID != connectionID {
		return LeaveResult{}, false
	}

	res := LeaveResult{
		Removed: r.players[idx],
		WasHost: idx == 0,
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)

	if r.started && len(r.players) > 0 && r.currentTurn >= 0 {
		wasCurrent := idx == r.currentTurn
		if idx < r.currentTurn {
			r.currentTurn--
		}
		r.currentTurn = r.currentTurn % len(r.players)
		if wasCurrent {
			// The turn passed to the inheriting player; let them roll.
			next := r.state[r.players[r.currentTurn].Color]
			next.hasRolled = false
			next.hasMoved = false
		}
	}

	res.Empty = len(r.players) == 0
	res.Players = append([]Player(nil), r.players...)

	return res, true
}

// StartResult carries the committed turn order and the opening turn.
type StartResult struct {
	Players   []Player
	FirstTurn board.Color
}

// Start transitions the lobby into gameplay. Only the host (first
// joiner) may trigger it, and only at full capacity. Turn order is the
// fixed color priority rotated so the host's color leads.
func (r *Room) Start(userID string) (StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return StartResult{}, ErrStarted
	}
	if len(r.players) == 0 || r.players[0].UserID != userID {
		return StartResult{}, ErrNotHost
	}
	if len(r.players) != r.mode.Capacity() {
		return StartResult{}, ErrRoomNotReady
	}

	hostColor := r.players[0].Color
	lead := lo.IndexOf(board.TurnPriority, hostColor)
	if lead < 0 {
		lead = 0
	}

	ordered := make([]Player, 0, len(r.players))
	for i := 0; i < len(board.TurnPriority); i++ {
		c := board.TurnPriority[(lead+i)%len(board.TurnPriority)]
		if p, ok := lo.Find(r.players, func(p Player) bool { return p.Color == c }); ok {
			ordered = append(ordered, p)
		}
	}

	r.players = ordered
	r.started = true
	r.currentTurn = 0
	r.finishOrder = nil
	r.participants = lo.Map(r.players, func(p Player, _ int) Participant {
		return Participant{UserID: p.UserID, Color: p.Color}
	})
	for _, cs := range r.state {
		cs.hasRolled = false
		cs.hasMoved = false
	}

	return StartResult{
		Players:   append([]Player(nil), r.players...),
		FirstTurn: r.players[0].Color,
	}, nil
}

// ownerOfColorLocked checks that userID holds the color in this room.
func (r *Room) ownerOfColorLocked(userID string, c board.Color) error {
	p, ok := lo.Find(r.players, func(p Player) bool { return p.UserID == userID })
	if !ok {
		return ErrNotMember
	}
	if p.Color != c {
		return ErrColorNotOwned
	}
	return nil
}
