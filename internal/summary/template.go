// Package summary produces narrative summaries of a form's responses.
//
// Template is a fixed-wording generator with no analytical model behind it.
// A model-backed generator plugs in by implementing app.SummaryGenerator.
package summary

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"formflow-analytics/internal/domain"
	"formflow-analytics/internal/stats"
)

// detailedAnswerLen is the length above which a text answer counts as detailed feedback.
const detailedAnswerLen = 10

// Template fills a fixed set of sentences with response counts.
type Template struct {
	// Delay simulates model latency; zero disables it.
	Delay time.Duration
	now   func() time.Time
}

func NewTemplate(delay time.Duration) *Template {
	return &Template{Delay: delay, now: time.Now}
}

// NewTemplateWithClock is test-only for deterministic timestamps.
func NewTemplateWithClock(delay time.Duration, now func() time.Time) *Template {
	return &Template{Delay: delay, now: now}
}

func (t *Template) Generate(ctx context.Context, form domain.Form, responses []domain.Response) (domain.Summary, error) {
	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.Summary{}, ctx.Err()
		}
	}

	total := len(responses)
	insights := []string{
		fmt.Sprintf("Collected %d responses", total),
		fmt.Sprintf("%d%% of responses included detailed feedback", detailedShare(responses)),
	}
	if top, ok := topChoice(form, responses); ok {
		insights = append(insights, top)
	} else {
		insights = append(insights, "Open-ended answers carry most of the signal for this form")
	}

	return domain.Summary{
		FormID: form.ID,
		Summary: fmt.Sprintf("Analysis of %q covers %d total responses. "+
			"The breakdown below highlights engagement and the most common answers.", form.Title, total),
		KeyInsights: insights,
		Recommendations: []string{
			"Consider expanding the survey to reach more respondents",
			"Follow up on the detailed feedback left in open-ended answers",
			"Re-run the survey after acting on the results to measure change",
		},
		GeneratedAt: t.now(),
	}, nil
}

// detailedShare is the percentage of detailed text answers per response, 0 with no responses.
func detailedShare(responses []domain.Response) int {
	if len(responses) == 0 {
		return 0
	}
	detailed := 0
	for _, r := range responses {
		for _, a := range r.Answers {
			if a.IsText() && utf8.RuneCountInString(a.Text) > detailedAnswerLen {
				detailed++
			}
		}
	}
	return int(math.Round(float64(detailed) / float64(len(responses)) * 100))
}

func topChoice(form domain.Form, responses []domain.Response) (string, bool) {
	computed := stats.Compute(responses, form.Questions)
	for _, q := range form.Questions {
		if q.Type != domain.QuestionChoice {
			continue
		}
		entries := computed.QuestionStats[q.ID].Responses
		if len(entries) == 0 {
			continue
		}
		return fmt.Sprintf("Most respondents answered %q to %q (%d of %d)",
			entries[0].Value, q.Prompt, entries[0].Count, computed.TotalResponses), true
	}
	return "", false
}
