package game

import (
	"time"

	"github.com/sauravnr/ludopi-sub000/board"
)

// Test hooks. Rooms shuffle their color order and timestamp themselves
// at creation; tests need both pinned down.

func (r *Room) setShuffledColors(colors []board.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shuffledColors = append([]board.Color(nil), colors...)
}

func (r *Room) setSteps(c board.Color, steps TokenSteps) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[c].steps = steps
}

// backdate shifts the room's creation and activity timestamps into the
// past, as if the room had been sitting untouched for d.
func (r *Room) backdate(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createdAt = r.createdAt.Add(-d)
	r.lastActive = r.lastActive.Add(-d)
}

func (g *Registry) runSweep(now time.Time, notify CloseNotifier) []string {
	return g.sweep(now, notify)
}
