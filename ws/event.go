package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sauravnr/ludopi-sub000/board"
	"github.com/sauravnr/ludopi-sub000/game"
)

type Event struct {
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id"`
	Payload json.RawMessage `json:"payload"`
}

type EventHandler func(ctx context.Context, evt Event, c *Client) error

// Client -> server intents.
const (
	EventJoinRoom    = "join-room"
	EventStartGame   = "start-game"
	EventDiceSpin    = "dice-spin-intent"
	EventDiceMove    = "dice-move-intent"
	EventLeaveRoom   = "leave-room"
	EventChatMessage = "chat-message"
)

// Server -> client notifications.
const (
	EventPlayerList    = "player-list"
	EventGameStarted   = "game-started"
	EventTurnChange    = "turn-change"
	EventDiceRolled    = "dice-rolled-broadcast"
	EventGameOver      = "game-over"
	EventRoomNotFound  = "room-not-found"
	EventRoomFull      = "room-full"
	EventRateLimit     = "rate-limit"
	EventRoomClosed    = "room-closed"
	EventConnElsewhere = "conn-elsewhere"
	EventError         = "error"
)

type PayloadError struct {
	Message string `json:"message"`
}

type PayloadJoinRoom struct {
	RoomCode string `json:"room_code"`
	Mode     string `json:"mode"`
}

type PayloadRoom struct {
	RoomCode string `json:"room_code"`
}

type PayloadSpin struct {
	RoomCode string `json:"room_code"`
	Color    string `json:"color"`
	Value    int    `json:"value"`
}

type PayloadMove struct {
	RoomCode   string `json:"room_code"`
	Color      string `json:"color"`
	TokenIndex *int   `json:"token_index,omitempty"`
	Value      int    `json:"value"`
}

type PayloadChatMessage struct {
	RoomCode string `json:"room_code"`
	Message  string `json:"message"`
	From     string `json:"from"`
}

type PlayerInfo struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Color    board.Color `json:"color"`
}

type PayloadPlayerList struct {
	Players []PlayerInfo `json:"players"`
	Mode    string       `json:"mode"`
}

type PayloadTurnChange struct {
	CurrentTurnColor board.Color `json:"current_turn_color"`
}

type PayloadDiceRolled struct {
	Color board.Color `json:"color"`

	Value int `json:"value"`

	// UpdatedSteps is null for a spin-only broadcast; after a move it
	// maps every touched color to its four token steps.
	UpdatedSteps map[board.Color]game.TokenSteps `json:"updated_steps"`

	Capture  bool `json:"capture"`
	Finished bool `json:"finished"`
}

type PayloadGameOver struct {
	FinishOrder []board.Color `json:"finish_order"`
}

type PayloadRoomClosed struct {
	Message string `json:"message"`
}

func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evt := NewEventStruct(evtType, b, "")

	return evt, nil
}

func NewErrorEvent(traceId, message string) (Event, error) {
	payload := PayloadError{Message: message}
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evt := NewEventStruct(fmt.Sprintf("%v_%v", EventError, traceId), b, traceId)

	return evt, nil
}

func NewEventStruct(evtType string, payload []byte, traceId string) Event {
	return Event{
		Type:    evtType,
		TraceID: traceId,
		Payload: payload,
	}
}
