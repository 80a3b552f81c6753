package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"formflow-analytics/internal/domain"
	"formflow-analytics/internal/stats"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FormRepository stores form definitions (in-memory, SQLite, Postgres, cached).
type FormRepository interface {
	SaveForm(ctx context.Context, form domain.Form) error
	GetForm(ctx context.Context, formID string) (domain.Form, error)
	// UpdateForm applies fn to the stored form and persists the result.
	UpdateForm(ctx context.Context, formID string, fn func(*domain.Form) error) (domain.Form, error)
	ListForms(ctx context.Context) ([]domain.Form, error)
}

// ResponseRepository is an append-only log of submissions per form.
type ResponseRepository interface {
	AppendResponse(ctx context.Context, response domain.Response) error
	// ListResponses returns a form's responses in submission order.
	ListResponses(ctx context.Context, formID string) ([]domain.Response, error)
}

// SummaryRepository keeps the latest generated summary per form.
type SummaryRepository interface {
	SaveSummary(ctx context.Context, summary domain.Summary) error
	GetSummary(ctx context.Context, formID string) (domain.Summary, error)
}

// SummaryGenerator turns responses into a narrative summary.
type SummaryGenerator interface {
	Generate(ctx context.Context, form domain.Form, responses []domain.Response) (domain.Summary, error)
}

// FeedRepository abstracts where live stats feeds are kept (in-memory, Redis, etc).
type FeedRepository interface {
	GetOrCreate(formID string) *Feed
	Get(formID string) (*Feed, bool)
	DeleteIfIdle(formID string)
}

// Repositories groups the storage dependencies of SurveyService.
type Repositories struct {
	Forms     FormRepository
	Responses ResponseRepository
	Summaries SummaryRepository
	Feeds     FeedRepository
}

// SurveyService contains the survey use cases.
type SurveyService struct {
	forms     FormRepository
	responses ResponseRepository
	summaries SummaryRepository
	feeds     FeedRepository
	generator SummaryGenerator
	publicURL string
	validate  *validator.Validate
	now       func() time.Time
}

func NewSurveyService(repos Repositories, generator SummaryGenerator, publicURL string) *SurveyService {
	return NewSurveyServiceWithClock(repos, generator, publicURL, time.Now)
}

// NewSurveyServiceWithClock is test-only for deterministic timestamps.
func NewSurveyServiceWithClock(repos Repositories, generator SummaryGenerator, publicURL string, now func() time.Time) *SurveyService {
	return &SurveyService{
		forms:     repos.Forms,
		responses: repos.Responses,
		summaries: repos.Summaries,
		feeds:     repos.Feeds,
		generator: generator,
		publicURL: publicURL,
		validate:  validator.New(),
		now:       now,
	}
}

// CreateForm validates a draft and publishes it as an active form.
func (s *SurveyService) CreateForm(ctx context.Context, draft domain.FormDraft) (domain.Form, error) {
	draft = normalizeDraft(draft)
	if err := s.validateDraft(draft); err != nil {
		return domain.Form{}, err
	}

	questions := make([]domain.Question, len(draft.Questions))
	for i, q := range draft.Questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.Type != domain.QuestionChoice {
			q.Options = nil
		}
		questions[i] = q
	}

	form := domain.Form{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Questions:   questions,
		Active:      true,
		CreatedAt:   s.now(),
	}
	if err := s.forms.SaveForm(ctx, form); err != nil {
		return domain.Form{}, fmt.Errorf("save form: %w", err)
	}
	return form, nil
}

func (s *SurveyService) GetForm(ctx context.Context, formID string) (domain.Form, error) {
	return s.forms.GetForm(ctx, formID)
}

// ListForms returns all forms, oldest first.
func (s *SurveyService) ListForms(ctx context.Context) ([]domain.Form, error) {
	forms, err := s.forms.ListForms(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(forms, func(i, j int) bool {
		return forms[i].CreatedAt.Before(forms[j].CreatedAt)
	})
	return forms, nil
}

// ToggleFormStatus closes an active form or reopens a closed one.
func (s *SurveyService) ToggleFormStatus(ctx context.Context, formID string) (domain.Form, error) {
	return s.forms.UpdateForm(ctx, formID, func(form *domain.Form) error {
		if form.Active {
			closedAt := s.now()
			form.Active = false
			form.ClosedAt = &closedAt
		} else {
			form.Active = true
			form.ClosedAt = nil
		}
		return nil
	})
}

// SubmitResponse validates and records an anonymous submission, then pushes
// fresh stats to any live subscribers of the form.
func (s *SurveyService) SubmitResponse(ctx context.Context, formID string, answers map[string]domain.Answer) (domain.Response, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		return domain.Response{}, err
	}
	if !form.Active {
		return domain.Response{}, domain.ErrFormClosed
	}

	cleaned, err := validateAnswers(form, answers)
	if err != nil {
		return domain.Response{}, err
	}

	response := domain.Response{
		ID:          uuid.NewString(),
		FormID:      formID,
		Answers:     cleaned,
		SubmittedAt: s.now(),
	}
	if err := s.responses.AppendResponse(ctx, response); err != nil {
		return domain.Response{}, fmt.Errorf("append response: %w", err)
	}

	s.publishStats(ctx, form)
	return response, nil
}

func (s *SurveyService) ListResponses(ctx context.Context, formID string) ([]domain.Response, error) {
	if _, err := s.forms.GetForm(ctx, formID); err != nil {
		return nil, err
	}
	return s.responses.ListResponses(ctx, formID)
}

// Stats aggregates the current responses of a form.
func (s *SurveyService) Stats(ctx context.Context, formID string) (domain.FormStats, error) {
	form, responses, err := s.load(ctx, formID)
	if err != nil {
		return domain.FormStats{}, err
	}
	return stats.Compute(responses, form.Questions), nil
}

// GenerateSummary runs the summary generator and replaces the stored summary.
func (s *SurveyService) GenerateSummary(ctx context.Context, formID string) (domain.Summary, error) {
	form, responses, err := s.load(ctx, formID)
	if err != nil {
		return domain.Summary{}, err
	}
	summary, err := s.generator.Generate(ctx, form, responses)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("generate summary: %w", err)
	}
	if err := s.summaries.SaveSummary(ctx, summary); err != nil {
		return domain.Summary{}, fmt.Errorf("save summary: %w", err)
	}
	return summary, nil
}

func (s *SurveyService) Summary(ctx context.Context, formID string) (domain.Summary, error) {
	return s.summaries.GetSummary(ctx, formID)
}

// Export collects the form, its responses, stats and summary, if any.
func (s *SurveyService) Export(ctx context.Context, formID string) (domain.Export, error) {
	form, responses, err := s.load(ctx, formID)
	if err != nil {
		return domain.Export{}, err
	}
	export := domain.Export{
		Form:      form,
		Responses: responses,
		Stats:     stats.Compute(responses, form.Questions),
	}
	summary, err := s.summaries.GetSummary(ctx, formID)
	switch {
	case err == nil:
		export.Summary = &summary
	case !errors.Is(err, domain.ErrSummaryNotFound):
		return domain.Export{}, err
	}
	return export, nil
}

// ShareLink returns the URL respondents open, the payload of the form's QR code.
func (s *SurveyService) ShareLink(formID string) string {
	base := s.publicURL
	if base == "" {
		base = "http://localhost:8080/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "?form=" + url.QueryEscape(formID)
	}
	q := u.Query()
	q.Set("form", formID)
	u.RawQuery = q.Encode()
	return u.String()
}

// Subscribe returns a channel of stats snapshots for a form, starting with the
// current one. The caller must invoke the returned cancel function to avoid leaks.
func (s *SurveyService) Subscribe(ctx context.Context, formID string) (<-chan domain.FormStats, func(), error) {
	if _, err := s.forms.GetForm(ctx, formID); err != nil {
		return nil, nil, err
	}

	// Register before computing the first snapshot so no submission falls
	// between the snapshot and the subscription.
	feed, ch, cancel := s.join(formID)
	unsubscribe := func() {
		cancel()
		s.feeds.DeleteIfIdle(formID)
	}
	if err := feed.refresh(func() (domain.FormStats, error) {
		return s.Stats(ctx, formID)
	}); err != nil {
		unsubscribe()
		return nil, nil, err
	}
	return ch, unsubscribe, nil
}

// join subscribes to the form's registered feed, retrying if the feed was
// dropped as idle between lookup and subscription.
func (s *SurveyService) join(formID string) (*Feed, <-chan domain.FormStats, func()) {
	for {
		feed := s.feeds.GetOrCreate(formID)
		ch, cancel := feed.subscribe()
		if current, ok := s.feeds.Get(formID); ok && current == feed {
			return feed, ch, cancel
		}
		cancel()
	}
}

func (s *SurveyService) publishStats(ctx context.Context, form domain.Form) {
	feed, ok := s.feeds.Get(form.ID)
	if !ok || feed.IsIdle() {
		return
	}
	err := feed.refresh(func() (domain.FormStats, error) {
		responses, err := s.responses.ListResponses(ctx, form.ID)
		if err != nil {
			return domain.FormStats{}, err
		}
		return stats.Compute(responses, form.Questions), nil
	})
	if err != nil {
		log.Printf("publish stats for form %s: %v", form.ID, err)
	}
}

// load fetches a form and its responses concurrently.
func (s *SurveyService) load(ctx context.Context, formID string) (domain.Form, []domain.Response, error) {
	var (
		form      domain.Form
		responses []domain.Response
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		form, err = s.forms.GetForm(gctx, formID)
		return err
	})
	g.Go(func() error {
		var err error
		responses, err = s.responses.ListResponses(gctx, formID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Form{}, nil, err
	}
	return form, responses, nil
}

func normalizeDraft(draft domain.FormDraft) domain.FormDraft {
	out := domain.FormDraft{
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Questions:   make([]domain.Question, 0, len(draft.Questions)),
	}
	for _, q := range draft.Questions {
		q.ID = strings.TrimSpace(q.ID)
		q.Prompt = strings.TrimSpace(q.Prompt)
		var options []string
		for _, opt := range q.Options {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
		q.Options = options
		out.Questions = append(out.Questions, q)
	}
	return out
}

func (s *SurveyService) validateDraft(draft domain.FormDraft) error {
	if err := s.validate.Struct(draft); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidForm, err)
	}
	seen := make(map[string]struct{}, len(draft.Questions))
	for i, q := range draft.Questions {
		if !q.Type.Valid() {
			return fmt.Errorf("%w: question %d has unknown type %q", domain.ErrInvalidForm, i+1, q.Type)
		}
		if q.Type == domain.QuestionChoice && len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d needs at least one option", domain.ErrInvalidForm, i+1)
		}
		if q.ID == "" {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", domain.ErrInvalidForm, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// validateAnswers checks answers against the form and drops blank optional ones.
func validateAnswers(form domain.Form, answers map[string]domain.Answer) (map[string]domain.Answer, error) {
	for id := range answers {
		if _, ok := form.Question(id); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownQuestion, id)
		}
	}

	cleaned := make(map[string]domain.Answer, len(answers))
	for _, q := range form.Questions {
		answer, ok := answers[q.ID]
		if ok && answer.IsText() {
			answer.Text = strings.TrimSpace(answer.Text)
		}
		if !ok || answer.Kind == 0 || (answer.IsText() && answer.Text == "") {
			if q.Required {
				return nil, fmt.Errorf("%w: %s", domain.ErrMissingAnswer, q.ID)
			}
			continue
		}

		switch q.Type {
		case domain.QuestionChoice:
			if !answer.IsText() || !containsOption(q.Options, answer.Text) {
				return nil, fmt.Errorf("%w: %s must be one of the options", domain.ErrInvalidAnswer, q.ID)
			}
		case domain.QuestionRating:
			n, ok := answer.Int()
			if !ok || n < domain.RatingMin || n > domain.RatingMax {
				return nil, fmt.Errorf("%w: %s must be a rating from %d to %d", domain.ErrInvalidAnswer, q.ID, domain.RatingMin, domain.RatingMax)
			}
		case domain.QuestionText:
			if !answer.IsText() {
				return nil, fmt.Errorf("%w: %s must be text", domain.ErrInvalidAnswer, q.ID)
			}
		}
		cleaned[q.ID] = answer
	}
	return cleaned, nil
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
