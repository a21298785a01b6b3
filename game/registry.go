package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sauravnr/ludopi-sub000/logger"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	defaultSweepInterval = time.Minute
	defaultEmptyGrace    = 5 * time.Minute
	defaultIdleLimit     = 10 * time.Minute
)

// CloseNotifier is invoked before the registry evicts an idle unstarted
// room, so the broadcast layer can tell connected members and detach
// them.
type CloseNotifier func(room *Room)

// Registry owns the code -> room map shared by every connection in the
// process. It generates collision-free codes and reclaims abandoned
// rooms in a background sweep.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	sweepInterval time.Duration
	emptyGrace    time.Duration
	idleLimit     time.Duration

	log    *zap.SugaredLogger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:         make(map[string]*Room),
		sweepInterval: defaultSweepInterval,
		emptyGrace:    defaultEmptyGrace,
		idleLimit:     defaultIdleLimit,
		log:           logger.Log,
		stopCh:        make(chan struct{}),
	}
}

// Create registers a new room under a fresh code and returns it.
// Codes are short enough to be human-shareable, so generation retries
// on the rare collision with a live room.
func (g *Registry) Create(mode Mode) (*Room, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown room mode %q", mode)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var code string
	for {
		code = randomCode()
		if _, taken := g.rooms[code]; !taken {
			break
		}
	}

	room := NewRoom(code, mode)
	g.rooms[code] = room

	g.log.Infow("room created", "code", code, "mode", mode)

	return room, nil
}

// Get looks a room up by code. Absence is an expected outcome, not an
// error: clients present stale or mistyped codes all the time.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[code]
	return room, ok
}

// Delete removes a room from the map. Idempotent.
func (g *Registry) Delete(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, code)
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// StartSweeper runs the periodic reclaim loop until Stop is called.
func (g *Registry) StartSweeper(notify CloseNotifier) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ticker := time.NewTicker(g.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-g.stopCh:
				return
			case <-ticker.C:
				g.sweep(time.Now(), notify)
			}
		}
	}()
}

func (g *Registry) Stop() {
	close(g.stopCh)
	g.wg.Wait()
}

// sweep deletes rooms that existed only momentarily (empty past the
// grace period) and unstarted lobbies idle past the limit. Idle lobby
// members are notified first so they do not hang on a dead room.
func (g *Registry) sweep(now time.Time, notify CloseNotifier) (removed []string) {
	g.mu.RLock()
	candidates := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		candidates = append(candidates, room)
	}
	g.mu.RUnlock()

	for _, room := range candidates {
		switch {
		case room.playerCount() == 0 && room.age(now) > g.emptyGrace:
			g.Delete(room.Code())
			removed = append(removed, room.Code())
			g.log.Infow("swept empty room", "code", room.Code())
		case !room.Started() && room.idleSince(now) > g.idleLimit:
			if notify != nil {
				notify(room)
			}
			g.Delete(room.Code())
			removed = append(removed, room.Code())
			g.log.Infow("swept idle room", "code", room.Code())
		}
	}

	return removed
}

func randomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
