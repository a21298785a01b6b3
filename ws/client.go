package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// Client is one authenticated websocket connection. UserID and
// Username are fixed at the handshake; the room association is an
// explicit session record managed by the Manager under its lock, not
// ambient closure state.
type Client struct {
	ID         string
	UserID     string
	Username   string
	connection *websocket.Conn
	manager    *Manager
	egress     chan Event
	roomCode   string
	err        chan error
}

func NewClient(conn *websocket.Conn, manager *Manager, userID, username string) *Client {
	return &Client{
		ID:         uuid.NewString(),
		UserID:     userID,
		Username:   username,
		connection: conn,
		manager:    manager,
		egress:     make(chan Event),
		err:        make(chan error),
	}
}

// Reads incoming messages from the client's websocket connection
func (c *Client) readMessages(ctx context.Context) {
	c.connection.SetReadLimit(1024)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := c.connection.ReadMessage()

			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("error reading message: %v", err)
				}
				c.handleError(err)
				return
			}

			var evt Event

			if err := json.Unmarshal(payload, &evt); err != nil {
				c.handleError(err)
				return
			}

			if err := c.manager.routeEvent(ctx, evt, c); err != nil {
				log.Printf("error handling event %v: %v", evt.Type, err)

				errEvent, err := NewErrorEvent(evt.TraceID, err.Error())

				if err != nil {
					c.handleError(err)
					return
				}

				c.PushToEgress(errEvent)
				// emit an error to client. Any errors returned from event handlers
				// should be emitted to the client using the trace id
			}
		}

	}
}

// writes messages pushed to the client's egress channel
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
	}()

	for {
		select {
		// if the context is cancelled, return
		case <-ctx.Done():
			return
		case message, ok := <-c.egress:
			if !ok { // if client egress conn is closed unexpectedly
				c.handleError(errors.New("client egress channel unexpectedly closed"))
				return
			}

			data, err := json.Marshal(message)

			if err != nil {
				c.handleError(err)
				return
			}

			if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				c.handleError(err)
				return
			}
		case <-ticker.C:
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte("")); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// Push error to client error channel. This is used by the
// http handler to know when an error has occurred in a client's readMessage or writeMessage goroutine.
// The http handler closes the connection and removes the client when an error is pushed to the channel
func (c *Client) handleError(e error) {
	c.err <- e
}

// Returns the error channel
func (c *Client) Err() chan error {
	return c.err
}

// Creates an event and pushes to client's egress
func (c *Client) PushEventToEgress(evtType string, payload any) error {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		return err
	}
	c.PushToEgress(evt)
	return nil
}

// Pushes an event to the client's egress to be delivered via the websocket connection
func (c *Client) PushToEgress(evt Event) {
	c.egress <- evt
}

// Room returns the code of the room this connection is attached to, or
// "" when not in a room.
func (c *Client) Room() string {
	c.manager.RLock()
	defer c.manager.RUnlock()
	return c.roomCode
}
