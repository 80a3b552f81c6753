package domain

import "time"

// QuestionType identifies how a question is answered and aggregated.
type QuestionType string

const (
	QuestionChoice QuestionType = "multiple-choice"
	QuestionText   QuestionType = "text"
	QuestionRating QuestionType = "rating"
)

// Rating answers are whole numbers on a fixed 1..5 scale.
const (
	RatingMin = 1
	RatingMax = 5
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionChoice, QuestionText, QuestionRating:
		return true
	}
	return false
}

// Question is a single form question. Options is only set for choice questions.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type" validate:"required"`
	Prompt   string       `json:"question" validate:"required"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required"`
}

// Form is a published survey. Questions are immutable once the form exists;
// Active gates whether new responses are accepted.
type Form struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	Active      bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}

// Question returns the question with the given id.
func (f Form) Question(id string) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// FormDraft is what a creator submits; ids and timestamps are assigned on create.
type FormDraft struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions" validate:"required,min=1,dive"`
}

// Response is one anonymous submission. Records are append-only.
type Response struct {
	ID          string            `json:"id" msgpack:"id"`
	FormID      string            `json:"formId" msgpack:"form_id"`
	Answers     map[string]Answer `json:"answers" msgpack:"answers"`
	SubmittedAt time.Time         `json:"submittedAt" msgpack:"submitted_at"`
}

// Summary is the generated narrative for a form's responses.
type Summary struct {
	FormID          string    `json:"formId"`
	Summary         string    `json:"summary"`
	KeyInsights     []string  `json:"keyInsights"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Export bundles everything known about a form for download.
type Export struct {
	Form      Form       `json:"form"`
	Responses []Response `json:"responses"`
	Stats     FormStats  `json:"stats"`
	Summary   *Summary   `json:"aiSummary,omitempty"`
}
