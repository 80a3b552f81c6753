package memory

import (
	"context"
	"sync"

	"formflow-analytics/internal/domain"
)

// Store keeps forms, responses and summaries in process memory.
// It implements app.FormRepository, app.ResponseRepository and app.SummaryRepository.
type Store struct {
	mu        sync.RWMutex
	forms     map[string]domain.Form
	responses map[string][]domain.Response
	summaries map[string]domain.Summary
}

func NewStore() *Store {
	return &Store{
		forms:     make(map[string]domain.Form),
		responses: make(map[string][]domain.Response),
		summaries: make(map[string]domain.Summary),
	}
}

func (s *Store) SaveForm(_ context.Context, form domain.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[form.ID] = cloneForm(form)
	return nil
}

func (s *Store) GetForm(_ context.Context, formID string) (domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.forms[formID]
	if !ok {
		return domain.Form{}, domain.ErrFormNotFound
	}
	return cloneForm(form), nil
}

func (s *Store) UpdateForm(_ context.Context, formID string, fn func(*domain.Form) error) (domain.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[formID]
	if !ok {
		return domain.Form{}, domain.ErrFormNotFound
	}
	form = cloneForm(form)
	if err := fn(&form); err != nil {
		return domain.Form{}, err
	}
	s.forms[formID] = form
	return cloneForm(form), nil
}

func (s *Store) ListForms(_ context.Context) ([]domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Form, 0, len(s.forms))
	for _, form := range s.forms {
		out = append(out, cloneForm(form))
	}
	return out, nil
}

func (s *Store) AppendResponse(_ context.Context, response domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[response.FormID] = append(s.responses[response.FormID], cloneResponse(response))
	return nil
}

func (s *Store) ListResponses(_ context.Context, formID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.responses[formID]
	out := make([]domain.Response, len(stored))
	for i, r := range stored {
		out[i] = cloneResponse(r)
	}
	return out, nil
}

func (s *Store) SaveSummary(_ context.Context, summary domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.FormID] = summary
	return nil
}

func (s *Store) GetSummary(_ context.Context, formID string) (domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[formID]
	if !ok {
		return domain.Summary{}, domain.ErrSummaryNotFound
	}
	return summary, nil
}

func cloneForm(form domain.Form) domain.Form {
	questions := make([]domain.Question, len(form.Questions))
	for i, q := range form.Questions {
		if q.Options != nil {
			q.Options = append([]string(nil), q.Options...)
		}
		questions[i] = q
	}
	form.Questions = questions
	if form.ClosedAt != nil {
		closedAt := *form.ClosedAt
		form.ClosedAt = &closedAt
	}
	return form
}

func cloneResponse(r domain.Response) domain.Response {
	answers := make(map[string]domain.Answer, len(r.Answers))
	for k, v := range r.Answers {
		answers[k] = v
	}
	r.Answers = answers
	return r
}
