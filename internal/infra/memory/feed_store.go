package memory

import (
	"sync"

	"formflow-analytics/internal/app"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(formID string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if feed, ok := s.feeds[formID]; ok {
		return feed
	}
	feed := app.NewFeed(formID)
	s.feeds[formID] = feed
	return feed
}

func (s *FeedStore) Get(formID string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[formID]
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
	}
}
