package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/sauravnr/ludopi-sub000/game"
	"github.com/sauravnr/ludopi-sub000/stats"
	"github.com/sauravnr/ludopi-sub000/tokens"
	"github.com/sauravnr/ludopi-sub000/util"
)

var (
	// Presentation pacing: clients get this long to finish a dice
	// animation before the turn-change notification fires. The
	// authoritative state already reflects the next turn.
	turnNoticeDelay = 2 * time.Second

	// Chat stays open this long after a match ends.
	chatCloseDelay = 5 * time.Minute
)

type ClientList map[string]*Client

type wsQuery struct {
	Token string `form:"token" binding:"required"`
}

type Manager struct {
	clients ClientList
	sync.RWMutex
	handlers map[string]EventHandler
	Rooms    map[string][]*Client
	config   *util.Config
	registry *game.Registry
	sink     *stats.Sink
	limiters map[string]*rate.Limiter
	upgrader websocket.Upgrader
}

func NewManager(config *util.Config, registry *game.Registry, sink *stats.Sink) *Manager {
	m := &Manager{
		clients:  make(ClientList),
		handlers: make(map[string]EventHandler),
		Rooms:    make(map[string][]*Client),
		config:   config,
		registry: registry,
		sink:     sink,
		limiters: make(map[string]*rate.Limiter),
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == config.CORSOrigin
		},
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventJoinRoom] = JoinRoomHandler
	m.handlers[EventStartGame] = StartGameHandler
	m.handlers[EventDiceSpin] = DiceSpinHandler
	m.handlers[EventDiceMove] = DiceMoveHandler
	m.handlers[EventLeaveRoom] = LeaveRoomHandler
	m.handlers[EventChatMessage] = ChatMessageHandler
}

func (m *Manager) routeEvent(ctx context.Context, evt Event, c *Client) error {
	if handler, ok := m.handlers[evt.Type]; ok {
		if err := handler(ctx, evt, c); err != nil {
			return err
		}

		return nil
	}

	return errors.New("there is no such event type")
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	m.clients[client.ID] = client
}

func (m *Manager) removeClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		client.connection.Close()
		delete(m.clients, client.ID)
	}
}

// allowJoin applies the per-user join rate limit: a small burst, then
// one attempt every couple of seconds, to blunt code guessing.
func (m *Manager) allowJoin(userID string) bool {
	m.Lock()
	lim, ok := m.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(2*time.Second), 5)
		m.limiters[userID] = lim
	}
	m.Unlock()

	return lim.Allow()
}

// attach adds the client to a room's broadcast group and records the
// session association.
func (m *Manager) attach(c *Client, roomCode string) {
	m.Lock()
	defer m.Unlock()

	room := m.Rooms[roomCode]
	if !slices.Contains(room, c) {
		m.Rooms[roomCode] = append(room, c)
	}
	c.roomCode = roomCode
}

// detach removes the client from its room's broadcast group.
func (m *Manager) detach(c *Client) {
	m.Lock()
	defer m.Unlock()
	m.detachLocked(c)
}

func (m *Manager) detachLocked(c *Client) {
	if c.roomCode == "" {
		return
	}

	room := m.Rooms[c.roomCode]
	if idx := slices.Index(room, c); idx >= 0 {
		m.Rooms[c.roomCode] = append(room[:idx], room[idx+1:]...)
	}
	if len(m.Rooms[c.roomCode]) == 0 {
		delete(m.Rooms, c.roomCode)
	}
	c.roomCode = ""
}

// detachRoom empties a room's broadcast group entirely.
func (m *Manager) detachRoom(roomCode string) {
	m.Lock()
	defer m.Unlock()

	for _, client := range m.Rooms[roomCode] {
		client.roomCode = ""
	}
	delete(m.Rooms, roomCode)
}

// roomClients snapshots a room's broadcast group.
func (m *Manager) roomClients(roomCode string) []*Client {
	m.RLock()
	defer m.RUnlock()
	return slices.Clone(m.Rooms[roomCode])
}

// EmitToRoom fans an event out to every connection in a room's
// broadcast group.
func (m *Manager) EmitToRoom(roomCode string, evt Event) {
	for _, client := range m.roomClients(roomCode) {
		client.PushToEgress(evt)
	}
}

// EmitPlayerList broadcasts the membership snapshot of a room.
func (m *Manager) EmitPlayerList(roomCode string, players []game.Player, mode game.Mode) error {
	evt, err := NewEvent(EventPlayerList, PayloadPlayerList{
		Players: playerInfos(players),
		Mode:    string(mode),
	})

	if err != nil {
		return err
	}

	m.EmitToRoom(roomCode, evt)
	return nil
}

// scheduleTurnNotice emits the "whose turn now" notification after the
// pacing delay. The callback re-resolves the room and the current turn
// from scratch, so a room deleted in the interim is a harmless no-op.
func (m *Manager) scheduleTurnNotice(roomCode string) {
	time.AfterFunc(turnNoticeDelay, func() {
		room, ok := m.registry.Get(roomCode)
		if !ok {
			return
		}

		color, ok := room.CurrentTurnColor()
		if !ok {
			return
		}

		evt, err := NewEvent(EventTurnChange, PayloadTurnChange{CurrentTurnColor: color})
		if err != nil {
			log.Println("error building turn-change event:", err)
			return
		}

		m.EmitToRoom(roomCode, evt)
	})
}

// finishMatch fires the end-of-match side effects: durable stats for
// every participant and the deferred chat closure. Both are isolated
// from the game state, which is already final.
func (m *Manager) finishMatch(room *game.Room, res game.MoveResult) {
	participants := room.Participants()

	results := make([]stats.Result, 0, len(res.FinishOrder))
	for place, color := range res.FinishOrder {
		if p, ok := lo.Find(participants, func(p game.Participant) bool { return p.Color == color }); ok {
			results = append(results, stats.Result{
				UserID: p.UserID,
				Color:  color,
				Place:  place + 1,
			})
		}
	}

	m.sink.RecordMatchAsync(room.Code(), results)

	code := room.Code()
	time.AfterFunc(chatCloseDelay, func() {
		m.sink.NotifyChatClosed(code)
	})
}

// NotifyRoomClosing is the registry sweeper's hook for idle unstarted
// rooms: members hear the room is closing, then are detached.
func (m *Manager) NotifyRoomClosing(room *game.Room) {
	evt, err := NewEvent(EventRoomClosed, PayloadRoomClosed{
		Message: "room closed due to inactivity",
	})

	if err != nil {
		log.Println("error building room-closed event:", err)
		return
	}

	m.EmitToRoom(room.Code(), evt)
	m.detachRoom(room.Code())
}

// handleDeparture converges the leave-room intent and abrupt
// disconnects. Host departure tears the room down for everyone; other
// departures shrink the membership and delete the room once empty.
func (m *Manager) handleDeparture(c *Client) {
	roomCode := c.Room()
	if roomCode == "" {
		return
	}

	room, ok := m.registry.Get(roomCode)
	if !ok {
		m.detach(c)
		return
	}

	res, ok := room.Leave(c.UserID, c.ID)

	// The departing connection's write pump is already gone; drop it
	// from the broadcast group before emitting anything to the room.
	m.detach(c)

	if !ok {
		// Not a member anymore, or a stale connection that was
		// replaced by a reconnect.
		return
	}

	if res.WasHost {
		evt, err := NewEvent(EventRoomClosed, PayloadRoomClosed{
			Message: "host left the room",
		})
		if err == nil {
			m.EmitToRoom(roomCode, evt)
		}
		m.detachRoom(roomCode)
		m.registry.Delete(roomCode)
		return
	}

	if res.Empty {
		m.registry.Delete(roomCode)
		return
	}

	if err := m.EmitPlayerList(roomCode, res.Players, room.Mode()); err != nil {
		log.Println("error broadcasting player list:", err)
	}
}

// Websocket connection handler
func (m *Manager) ServeWS(c *gin.Context) {
	var query wsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "token not sent",
		})
		return
	}

	payload, err := tokens.ParseJWTToken(query.Token, []byte(m.config.JWTSecret))

	if err != nil {
		c.IndentedJSON(http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)

	if err != nil {
		log.Printf("error upgrading to websocket connection: %v\n", err)
		c.IndentedJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	client := NewClient(conn, m, payload.ID, payload.Username)

	m.addClient(client)

	ctx, cancel := context.WithCancel(c)

	defer func() {
		cancel()
		m.handleDeparture(client)
		m.removeClient(client)
		err := client.connection.WriteMessage(websocket.CloseMessage, nil)

		if !errors.Is(err, websocket.ErrCloseSent) {
			log.Println("Error sending close message:", err)
		}
	}()

	go client.readMessages(ctx)
	go client.writeMessages(ctx)

	err = <-client.Err()

	log.Println("Client error:", err)
}
