package domain

import "errors"

var (
	// ErrFormNotFound is returned when no form exists for an id.
	ErrFormNotFound = errors.New("form not found")
	// ErrFormClosed is returned when a response targets a form that no longer accepts them.
	ErrFormClosed = errors.New("form is closed")
	// ErrInvalidForm indicates a draft failed validation.
	ErrInvalidForm = errors.New("invalid form")
	// ErrUnknownQuestion indicates an answer keyed by a question the form does not have.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrMissingAnswer indicates a required question was left blank.
	ErrMissingAnswer = errors.New("required question not answered")
	// ErrInvalidAnswer indicates an answer of the wrong kind or outside the allowed values.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrSummaryNotFound is returned when no summary has been generated for a form.
	ErrSummaryNotFound = errors.New("summary not found")
)
