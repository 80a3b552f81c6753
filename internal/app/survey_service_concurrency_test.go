package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"formflow-analytics/internal/app"
	"formflow-analytics/internal/domain"
	"formflow-analytics/internal/infra/memory"
	"formflow-analytics/internal/summary"
)

func TestLiveStatsEndOnNewestSnapshot(t *testing.T) {
	ctx := context.Background()
	service, responses := newStallingService()
	form := mustCreate(t, service)

	ch, cancel, err := service.Subscribe(ctx, form.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-ch

	reached, release := responses.stallNextList()
	first := submitAsync(service, form.ID)
	<-reached

	second := submitAsync(service, form.ID)
	time.Sleep(20 * time.Millisecond)
	close(release)
	for _, done := range []chan error{first, second} {
		if err := <-done; err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	if got := latestSnapshot(t, ch); got.TotalResponses != 2 {
		t.Fatalf("expected last pushed snapshot to count 2 responses, got %d", got.TotalResponses)
	}
}

func TestSubscribeSeesSubmissionDuringSetup(t *testing.T) {
	ctx := context.Background()
	service, responses := newStallingService()
	form := mustCreate(t, service)

	type subscription struct {
		ch     <-chan domain.FormStats
		cancel func()
		err    error
	}
	reached, release := responses.stallNextList()
	subscribed := make(chan subscription, 1)
	go func() {
		ch, cancel, err := service.Subscribe(ctx, form.ID)
		subscribed <- subscription{ch: ch, cancel: cancel, err: err}
	}()
	<-reached

	submitted := submitAsync(service, form.ID)
	time.Sleep(20 * time.Millisecond)
	close(release)

	sub := <-subscribed
	if sub.err != nil {
		t.Fatalf("subscribe: %v", sub.err)
	}
	defer sub.cancel()
	if err := <-submitted; err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got := latestSnapshot(t, sub.ch); got.TotalResponses != 1 {
		t.Fatalf("expected subscriber to see the submission, got %d", got.TotalResponses)
	}
}

func TestSubscribeRejoinsDroppedFeed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	feeds := &orphaningFeeds{FeedStore: memory.NewFeedStore()}
	service := app.NewSurveyService(app.Repositories{
		Forms: store, Responses: store, Summaries: store, Feeds: feeds,
	}, summary.NewTemplate(0), "")
	form := mustCreate(t, service)

	ch, cancel, err := service.Subscribe(ctx, form.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-ch

	if _, err := service.SubmitResponse(ctx, form.ID, map[string]domain.Answer{"q1": domain.NumberAnswer(3)}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := latestSnapshot(t, ch); got.TotalResponses != 1 {
		t.Fatalf("expected update on the registered feed, got %d", got.TotalResponses)
	}
}

func submitAsync(service *app.SurveyService, formID string) chan error {
	done := make(chan error, 1)
	go func() {
		_, err := service.SubmitResponse(context.Background(), formID, map[string]domain.Answer{"q1": domain.NumberAnswer(4)})
		done <- err
	}()
	return done
}

// latestSnapshot drains everything already delivered and returns the newest.
func latestSnapshot(t *testing.T, ch <-chan domain.FormStats) domain.FormStats {
	t.Helper()
	var last domain.FormStats
	seen := false
	for {
		select {
		case s := <-ch:
			last, seen = s, true
		default:
			if !seen {
				t.Fatalf("no snapshot delivered")
			}
			return last
		}
	}
}

func newStallingService() (*app.SurveyService, *stallingResponses) {
	store := memory.NewStore()
	responses := &stallingResponses{Store: store}
	service := app.NewSurveyService(app.Repositories{
		Forms:     store,
		Responses: responses,
		Summaries: store,
		Feeds:     memory.NewFeedStore(),
	}, summary.NewTemplate(0), "")
	return service, responses
}

// stallingResponses can hold one ListResponses call after it has read the log.
type stallingResponses struct {
	*memory.Store
	mu      sync.Mutex
	reached chan struct{}
	release chan struct{}
}

func (r *stallingResponses) stallNextList() (reached, release chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reached = make(chan struct{})
	r.release = make(chan struct{})
	return r.reached, r.release
}

func (r *stallingResponses) ListResponses(ctx context.Context, formID string) ([]domain.Response, error) {
	responses, err := r.Store.ListResponses(ctx, formID)
	r.mu.Lock()
	reached, release := r.reached, r.release
	r.reached, r.release = nil, nil
	r.mu.Unlock()
	if reached != nil {
		close(reached)
		<-release
	}
	return responses, err
}

// orphaningFeeds hands out one unregistered feed, as if it had been dropped
// as idle right after lookup.
type orphaningFeeds struct {
	*memory.FeedStore
	once sync.Once
}

func (f *orphaningFeeds) GetOrCreate(formID string) *app.Feed {
	var orphan *app.Feed
	f.once.Do(func() { orphan = app.NewFeed(formID) })
	if orphan != nil {
		return orphan
	}
	return f.FeedStore.GetOrCreate(formID)
}
