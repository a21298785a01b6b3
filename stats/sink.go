// Package stats is the boundary to the durable player-record and chat
// collaborators. Writes are fire-and-isolate: a slow or failing sink
// never delays or rolls back the in-memory game state.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sauravnr/ludopi-sub000/board"
	"github.com/sauravnr/ludopi-sub000/logger"
)

const (
	writeTimeout = 5 * time.Second

	matchEndChannel   = "chat:match-end"
	chatClosedChannel = "chat:closed"
)

// Result is one participant's placement in a finished match.
type Result struct {
	UserID string
	Color  board.Color
	Place  int // 1-based
}

type Sink struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

func NewSink(rdb *redis.Client) *Sink {
	return &Sink{rdb: rdb, log: logger.Log}
}

func userKey(userID string) string {
	return fmt.Sprintf("stats:user:%v", userID)
}

// RecordMatch persists win/loss/game counters for every participant of
// a finished match, keyed by user id and color.
func (s *Sink) RecordMatch(ctx context.Context, roomCode string, results []Result) error {
	pipe := s.rdb.Pipeline()

	for _, res := range results {
		key := userKey(res.UserID)
		pipe.HIncrBy(ctx, key, "games", 1)
		if res.Place == 1 {
			pipe.HIncrBy(ctx, key, "wins", 1)
			pipe.HIncrBy(ctx, key, fmt.Sprintf("wins:%v", res.Color), 1)
		} else {
			pipe.HIncrBy(ctx, key, "losses", 1)
		}
	}

	pipe.Publish(ctx, matchEndChannel, roomCode)

	_, err := pipe.Exec(ctx)
	return err
}

// RecordMatchAsync runs RecordMatch in the background and logs any
// failure. The match outcome stands regardless.
func (s *Sink) RecordMatchAsync(roomCode string, results []Result) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := s.RecordMatch(ctx, roomCode, results); err != nil {
			s.log.Errorw("stats write failed", "room", roomCode, "error", err)
		}
	}()
}

// NotifyChatClosed tells the chat subsystem that a finished match's
// room chat is closing.
func (s *Sink) NotifyChatClosed(roomCode string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.rdb.Publish(ctx, chatClosedChannel, roomCode).Err(); err != nil {
		s.log.Errorw("chat close publish failed", "room", roomCode, "error", err)
	}
}
