package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// AnswerKind tells which field of an Answer holds the value.
type AnswerKind uint8

const (
	AnswerText AnswerKind = iota + 1
	AnswerNumber
)

// Answer is a single answer value: text for choice and text questions,
// a number for ratings. The zero value is an absent answer.
type Answer struct {
	Kind   AnswerKind
	Text   string
	Number float64
}

func TextAnswer(s string) Answer {
	return Answer{Kind: AnswerText, Text: s}
}

func NumberAnswer(n float64) Answer {
	return Answer{Kind: AnswerNumber, Number: n}
}

func (a Answer) IsText() bool   { return a.Kind == AnswerText }
func (a Answer) IsNumber() bool { return a.Kind == AnswerNumber }

// String returns the display form used for tallies. Numbers print as plain
// decimals, so the rating 3 and the text "3" render identically.
func (a Answer) String() string {
	switch a.Kind {
	case AnswerText:
		return a.Text
	case AnswerNumber:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	}
	return ""
}

// Int returns the number as an int when it is a whole number.
func (a Answer) Int() (int, bool) {
	if a.Kind != AnswerNumber || a.Number != math.Trunc(a.Number) || math.IsInf(a.Number, 0) {
		return 0, false
	}
	return int(a.Number), true
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerNumber:
		return json.Marshal(a.Number)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer must be a string or a number: %w", err)
	}
	*a = NumberAnswer(n)
	return nil
}

func (a Answer) EncodeMsgpack(e *msgpack.Encoder) error {
	switch a.Kind {
	case AnswerText:
		return e.EncodeString(a.Text)
	case AnswerNumber:
		return e.EncodeFloat64(a.Number)
	}
	return e.EncodeNil()
}

func (a *Answer) DecodeMsgpack(d *msgpack.Decoder) error {
	v, err := d.DecodeInterfaceLoose()
	if err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*a = Answer{}
	case string:
		*a = TextAnswer(v)
	case int64:
		*a = NumberAnswer(float64(v))
	case uint64:
		*a = NumberAnswer(float64(v))
	case float64:
		*a = NumberAnswer(v)
	default:
		return fmt.Errorf("unsupported answer type %T", v)
	}
	return nil
}
