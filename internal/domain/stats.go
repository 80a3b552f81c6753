package domain

import "encoding/json"

// TallyEntry counts how many responses gave one answer value.
type TallyEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// QuestionStat is the aggregate for a single question.
// Responses is ordered by count descending, ties in first-seen order.
// TextResponses is only set for text questions.
type QuestionStat struct {
	QuestionID    string       `json:"questionId"`
	Type          QuestionType `json:"type"`
	Responses     []TallyEntry `json:"responses"`
	TextResponses []string     `json:"textResponses,omitempty"`
	// Skipped counts responses that contributed nothing to this question.
	Skipped int `json:"skipped"`
}

// MarshalJSON always emits textResponses for text questions, even when empty.
func (s QuestionStat) MarshalJSON() ([]byte, error) {
	type plain QuestionStat
	if s.Type != QuestionText {
		return json.Marshal(plain(s))
	}
	texts := s.TextResponses
	if texts == nil {
		texts = []string{}
	}
	return json.Marshal(struct {
		plain
		TextResponses []string `json:"textResponses"`
	}{plain: plain(s), TextResponses: texts})
}

// FormStats is derived from a form's responses and never stored on its own.
type FormStats struct {
	TotalResponses int                     `json:"totalResponses"`
	QuestionStats  map[string]QuestionStat `json:"questionStats"`
}
