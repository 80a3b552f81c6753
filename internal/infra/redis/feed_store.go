package redis

import (
	"context"
	"sync"
	"time"

	"formflow-analytics/internal/app"
	"github.com/redis/go-redis/v9"
)

// FeedStore is a Redis-aware implementation of app.FeedRepository.
// Notes:
//   - Feeds themselves stay in process; subscribers are local websocket connections.
//   - Redis marks which forms have live viewers so other instances (or ops tooling)
//     can see it; a pub/sub channel per form would be the next step for fan-out
//     across instances.
type FeedStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	feeds  map[string]*app.Feed
}

func NewFeedStore(client *redis.Client, ttl time.Duration) *FeedStore {
	return &FeedStore{
		client: client,
		ttl:    ttl,
		feeds:  make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(formID string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[formID]
	if !ok {
		feed = app.NewFeed(formID)
		s.feeds[formID] = feed
	}
	s.touch(formID)
	return feed
}

func (s *FeedStore) Get(formID string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[formID]
	if ok {
		s.touch(formID)
	}
	return feed, ok
}

func (s *FeedStore) DeleteIfIdle(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[formID]
	if !ok {
		return
	}
	if feed.IsIdle() {
		delete(s.feeds, formID)
		_ = s.client.Del(context.Background(), s.key(formID)).Err()
	}
}

// touch sets or extends the best-effort liveness marker.
func (s *FeedStore) touch(formID string) {
	_ = s.client.Set(context.Background(), s.key(formID), "1", s.ttl).Err()
}

func (s *FeedStore) key(formID string) string {
	return "formflow:feed:" + formID
}
