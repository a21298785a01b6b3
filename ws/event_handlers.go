package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/sauravnr/ludopi-sub000/board"
	"github.com/sauravnr/ludopi-sub000/game"
)

// JoinRoomHandler gates entry to a room: rate limit, code lookup,
// color claim (or slot reuse on reconnect), then membership broadcast.
// Capacity and availability failures go to the caller alone.
func JoinRoomHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadJoinRoom

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return err
	}

	if !c.manager.allowJoin(c.UserID) {
		return c.PushEventToEgress(EventRateLimit, nil)
	}

	room, ok := c.manager.registry.Get(payload.RoomCode)
	if !ok {
		return c.PushEventToEgress(EventRoomNotFound, nil)
	}

	res, err := room.Join(c.ID, c.UserID, c.Username)
	if err != nil {
		if err == game.ErrRoomFull {
			return c.PushEventToEgress(EventRoomFull, nil)
		}
		return err
	}

	if res.Rejoined {
		// The user already held a color here; boot any earlier
		// connection of theirs off the room.
		for _, other := range c.manager.roomClients(room.Code()) {
			if other.UserID == c.UserID && other.ID != c.ID {
				other.PushEventToEgress(EventConnElsewhere, PayloadRoom{RoomCode: room.Code()})
				c.manager.detach(other)
			}
		}
	}

	c.manager.attach(c, room.Code())

	if err := c.manager.EmitPlayerList(room.Code(), res.Players, room.Mode()); err != nil {
		return err
	}

	// Late joiner of a running game is told whose turn it is.
	if res.Started {
		return c.PushEventToEgress(EventTurnChange, PayloadTurnChange{
			CurrentTurnColor: res.CurrentTurn,
		})
	}

	return nil
}

// StartGameHandler transitions the caller's lobby into gameplay.
// Host-only, capacity must be met; failures surface to the caller via
// the trace error path.
func StartGameHandler(ctx context.Context, e Event, c *Client) error {
	roomCode := c.Room()
	if roomCode == "" {
		return game.ErrRoomNotFound
	}

	room, ok := c.manager.registry.Get(roomCode)
	if !ok {
		return game.ErrRoomNotFound
	}

	res, err := room.Start(c.UserID)
	if err != nil {
		return err
	}

	evt, err := NewEvent(EventGameStarted, PayloadPlayerList{
		Players: playerInfos(res.Players),
		Mode:    string(room.Mode()),
	})
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(roomCode, evt)

	turnEvt, err := NewEvent(EventTurnChange, PayloadTurnChange{CurrentTurnColor: res.FirstTurn})
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(roomCode, turnEvt)

	return nil
}

// DiceSpinHandler commits the caller to a roll and broadcasts the face
// value with no token deltas. Validation rejections are dropped.
func DiceSpinHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadSpin

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return err
	}

	room, ok := c.manager.registry.Get(payload.RoomCode)
	if !ok {
		return nil
	}

	err := room.Spin(c.UserID, board.Color(payload.Color), payload.Value)
	if err != nil {
		if game.IsValidationRejection(err) {
			log.Printf("dropped spin intent from %v: %v", c.UserID, err)
			return nil
		}
		return err
	}

	evt, err := NewEvent(EventDiceRolled, PayloadDiceRolled{
		Color: board.Color(payload.Color),
		Value: payload.Value,
	})
	if err != nil {
		return err
	}

	c.manager.EmitToRoom(payload.RoomCode, evt)
	return nil
}

// DiceMoveHandler applies the committed roll: movement, captures,
// forfeiture, finish handling. The move outcome is broadcast at once;
// the turn-change notification follows after the pacing delay.
func DiceMoveHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadMove

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return err
	}

	room, ok := c.manager.registry.Get(payload.RoomCode)
	if !ok {
		return nil
	}

	res, err := room.Move(c.UserID, board.Color(payload.Color), payload.TokenIndex, payload.Value)
	if err != nil {
		if game.IsValidationRejection(err) {
			log.Printf("dropped move intent from %v: %v", c.UserID, err)
			return nil
		}
		return err
	}

	evt, err := NewEvent(EventDiceRolled, PayloadDiceRolled{
		Color:        res.Color,
		Value:        res.Value,
		UpdatedSteps: res.UpdatedSteps,
		Capture:      res.Capture,
		Finished:     res.ColorFinished,
	})
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(payload.RoomCode, evt)

	if res.GameOver {
		overEvt, err := NewEvent(EventGameOver, PayloadGameOver{FinishOrder: res.FinishOrder})
		if err != nil {
			return err
		}
		c.manager.EmitToRoom(payload.RoomCode, overEvt)

		c.manager.finishMatch(room, res)
		return nil
	}

	c.manager.scheduleTurnNotice(payload.RoomCode)
	return nil
}

// LeaveRoomHandler converges on the same departure routine as an
// abrupt disconnect.
func LeaveRoomHandler(ctx context.Context, e Event, c *Client) error {
	c.manager.handleDeparture(c)
	return nil
}

// ChatMessageHandler relays an in-room message. No persistence.
func ChatMessageHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadChatMessage

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return err
	}

	if c.Room() != payload.RoomCode {
		return nil
	}

	evt, err := NewEvent(EventChatMessage, PayloadChatMessage{
		RoomCode: payload.RoomCode,
		Message:  payload.Message,
		From:     c.Username,
	})
	if err != nil {
		return err
	}

	c.manager.EmitToRoom(payload.RoomCode, evt)
	return nil
}

func playerInfos(players []game.Player) []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, PlayerInfo{
			UserID:   p.UserID,
			Username: p.Username,
			Color:    p.Color,
		})
	}
	return infos
}
