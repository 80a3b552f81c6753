package app

import (
	"sync"

	"formflow-analytics/internal/domain"
)

// Feed fans out stats snapshots for one form to live subscribers.
type Feed struct {
	formID      string
	mu          sync.RWMutex
	subscribers map[chan domain.FormStats]struct{}
	// refreshMu orders compute-and-publish rounds, so the last snapshot
	// delivered was computed after every earlier round.
	refreshMu sync.Mutex
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed(formID string) *Feed {
	return &Feed{
		formID:      formID,
		subscribers: make(map[chan domain.FormStats]struct{}),
	}
}

// IsIdle reports whether the feed has no subscribers.
func (f *Feed) IsIdle() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers) == 0
}

func (f *Feed) subscribe() (<-chan domain.FormStats, func()) {
	ch := make(chan domain.FormStats, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// refresh computes a snapshot and publishes it; rounds never overlap.
func (f *Feed) refresh(compute func() (domain.FormStats, error)) error {
	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()
	stats, err := compute()
	if err != nil {
		return err
	}
	f.publish(stats)
	return nil
}

func (f *Feed) publish(stats domain.FormStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- stats:
		default:
			// drop the oldest snapshot so a slow reader never blocks submissions
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
}
