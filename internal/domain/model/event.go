// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SourceTagAssessment marks events recorded by the embedded question tag.
// Only events with this source are scorable; other sources are ignored
// upstream of the parser.
const SourceTagAssessment = "tag-assessment"

// AttemptEvent represents one recorded attempt at an embedded question.
// Events are immutable and owned by the event store.
type AttemptEvent struct {
	ID         string    // store-assigned id for idempotency
	UserID     string    // opaque user identifier, resolved via the roster
	Source     string    // event source tag, e.g. "tag-assessment"
	RecordedOn time.Time // server-side receipt time
	Data       string    // raw JSON payload as recorded
}

// Payload mirrors the JSON blob recorded with a tag-assessment event.
//
// A typical payload:
//
//	{"instanceid": "yOkVTqWogdaF", "quid": "5733935958982656", "score": 1,
//	 "location": "https://.../unit?unit=1&lesson=45",
//	 "answer": [0, 1, 2, 4], "type": "McQuestion"}
//
// quid is absent for out-of-catalog (Quizly-style) exercises. score may be
// a number or a boolean-as-string; answer may be a list, a scalar, or
// absent entirely.
type Payload struct {
	Location   string          `json:"location"`
	InstanceID string          `json:"instanceid"`
	QuestionID string          `json:"quid,omitempty"`
	Score      json.RawMessage `json:"score,omitempty"`
	Type       string          `json:"type"`
	Answer     json.RawMessage `json:"answer,omitempty"`
}

// DecodePayload unmarshals the event's raw data blob.
func (e AttemptEvent) DecodePayload() (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(e.Data), &p); err != nil {
		return Payload{}, fmt.Errorf("decode attempt payload: %w", err)
	}
	return p, nil
}

// ScoreValue normalizes the recorded score to a float64. Numbers pass
// through; "true"/"false" (with or without quoting) map to 1/0; quoted
// numerics are parsed. A missing score is 0.
func (p Payload) ScoreValue() (float64, error) {
	if len(p.Score) == 0 {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(p.Score, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(p.Score, &s); err != nil {
		return 0, fmt.Errorf("unrecognized score %q", string(p.Score))
	}
	switch s {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognized score %q", s)
	}
	return n, nil
}

// Answers normalizes the recorded answer to a list:
//   - absent answers become a single-element placeholder ([false]), matching
//     short-answer events that carry no structured answer
//   - the literal strings "true"/"false" (boolean-valued short answers) are
//     wrapped in a single-element list
//   - any other scalar is wrapped in a single-element list
//   - lists pass through
func (p Payload) Answers() []any {
	if len(p.Answer) == 0 {
		return []any{false}
	}
	var list []any
	if err := json.Unmarshal(p.Answer, &list); err == nil {
		return list
	}
	var scalar any
	if err := json.Unmarshal(p.Answer, &scalar); err != nil {
		return []any{false}
	}
	return []any{scalar}
}
