package pollstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// cursorTTL bounds how long per-caller poll bookkeeping survives an
// abandoned session.
const cursorTTL = time.Hour

// Store keeps the last-poll timestamp per (session, caller) in Redis. It is
// the only server-side state the sync protocol holds per polling client.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func key(sessionID uint, caller string) string {
	return fmt.Sprintf("pollcursor:%d:%s", sessionID, caller)
}

// LastPoll returns the caller's previous poll time, or the zero time when
// the caller has never polled (or the cursor expired).
func (s *Store) LastPoll(ctx context.Context, sessionID uint, caller string) (time.Time, error) {
	val, err := s.rdb.Get(ctx, key(sessionID, caller)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt poll cursor: %w", err)
	}
	return time.Unix(0, nanos), nil
}

// SetLastPoll records the caller's poll time.
func (s *Store) SetLastPoll(ctx context.Context, sessionID uint, caller string, t time.Time) error {
	return s.rdb.Set(ctx, key(sessionID, caller), strconv.FormatInt(t.UnixNano(), 10), cursorTTL).Err()
}
