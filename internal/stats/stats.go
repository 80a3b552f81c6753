// Package stats derives per-question tallies from a form's responses.
package stats

import (
	"sort"

	"formflow-analytics/internal/domain"
)

// Compute aggregates responses per question. It never fails: answers that
// are missing, empty or of the wrong kind are counted in Skipped and
// otherwise ignored. Inputs are not modified.
func Compute(responses []domain.Response, questions []domain.Question) domain.FormStats {
	out := domain.FormStats{
		TotalResponses: len(responses),
		QuestionStats:  make(map[string]domain.QuestionStat, len(questions)),
	}

	for _, q := range questions {
		switch q.Type {
		case domain.QuestionChoice, domain.QuestionRating:
			out.QuestionStats[q.ID] = tally(q, responses)
		case domain.QuestionText:
			out.QuestionStats[q.ID] = collectText(q, responses)
		}
	}
	return out
}

func tally(q domain.Question, responses []domain.Response) domain.QuestionStat {
	counts := make(map[string]int)
	// first-seen order of values; the sort below is stable over it
	var order []string
	answered := 0
	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || answer.Kind == 0 {
			continue
		}
		value := answer.String()
		if _, seen := counts[value]; !seen {
			order = append(order, value)
		}
		counts[value]++
		answered++
	}

	entries := make([]domain.TallyEntry, 0, len(order))
	for _, value := range order {
		entries = append(entries, domain.TallyEntry{Value: value, Count: counts[value]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	return domain.QuestionStat{
		QuestionID: q.ID,
		Type:       q.Type,
		Responses:  entries,
		Skipped:    len(responses) - answered,
	}
}

func collectText(q domain.Question, responses []domain.Response) domain.QuestionStat {
	texts := make([]string, 0, len(responses))
	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || !answer.IsText() || answer.Text == "" {
			continue
		}
		texts = append(texts, answer.Text)
	}
	return domain.QuestionStat{
		QuestionID:    q.ID,
		Type:          q.Type,
		Responses:     []domain.TallyEntry{},
		TextResponses: texts,
		Skipped:       len(responses) - len(texts),
	}
}
