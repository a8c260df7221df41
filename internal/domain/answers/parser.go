// Package answers turns raw attempt events into parsed, per-slot answers.
package answers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mobilecsp/activityscores/internal/domain/catalog"
	"github.com/mobilecsp/activityscores/internal/domain/model"
	"github.com/mobilecsp/activityscores/pkg/logger"
)

// Location markers carrying the unit and lesson ids, e.g.
// "https://host/course/unit?unit=1&lesson=45".
const (
	unitMarker   = "unit="
	lessonMarker = "&lesson="
)

// ParsedAnswer is one attempt at one (unit, lesson, sequence) slot, derived
// from a single attempt event. Ephemeral; folded into a score tree.
type ParsedAnswer struct {
	UnitID        string
	LessonID      string
	Sequence      int
	QuestionID    string
	QuestionType  string
	Timestamp     int64 // epoch seconds of the event's recorded-on time
	Answers       []any
	Score         float64
	WeightedScore float64
	Tallied       bool
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithLogger sets a custom logger for the parser.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser classifies and unpacks attempt events against a per-course lookup
// context.
type Parser struct {
	logger logger.Logger
}

// NewParser creates a parser with configuration options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger: logger.Get().Named("parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse turns one attempt event into its parsed answers, one per slot the
// event covers: a single question yields one answer, a grouped question one
// per sub-question with sequences base, base+1, ...
//
// Classified skips come back as errors matching this package's sentinels;
// none of them is fatal to a batch.
func (p *Parser) Parse(ctx context.Context, e model.AttemptEvent, lookup *catalog.LookupContext) ([]ParsedAnswer, error) {
	if e.Source != model.SourceTagAssessment {
		return nil, fmt.Errorf("%w: %q", ErrIgnoredSource, e.Source)
	}

	payload, err := e.DecodePayload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	unitID, lessonID, err := splitLocation(payload.Location)
	if err != nil {
		return nil, err
	}

	desc, ok := lookup.DescriptorForInstance(payload.InstanceID)
	if !ok {
		// Expected for out-of-catalog exercise types (e.g. Quizly); the
		// event is skipped, never the batch.
		p.logger.Info(ctx, "instance not in catalog",
			logger.String("instance_id", payload.InstanceID),
			logger.String("unit_id", unitID),
			logger.String("lesson_id", lessonID),
		)
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstance, payload.InstanceID)
	}

	score, err := payload.ScoreValue()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	base := ParsedAnswer{
		UnitID:        desc.UnitID,
		LessonID:      desc.LessonID,
		Sequence:      desc.Sequence,
		QuestionID:    desc.QuestionID,
		QuestionType:  payload.Type,
		Timestamp:     e.RecordedOn.Unix(),
		Answers:       payload.Answers(),
		Score:         score,
		WeightedScore: score * desc.EffectiveWeight(),
	}
	if payload.QuestionID != "" {
		base.QuestionID = payload.QuestionID
	}

	items, grouped := lookup.GroupItems(desc.QuestionID)
	if !grouped {
		return []ParsedAnswer{base}, nil
	}

	// Grouped question: one answer per sub-question, sequences incrementing
	// from the group's base. The stored payload carries only the aggregate
	// score, which is applied to each sub-slot.
	parsed := make([]ParsedAnswer, 0, len(items))
	for i, item := range items {
		sub := base
		sub.Sequence = desc.Sequence + i
		sub.QuestionID = item.QuestionID
		parsed = append(parsed, sub)
	}
	return parsed, nil
}

// splitLocation extracts the unit and lesson ids from a recorded location
// URL by its query markers.
func splitLocation(location string) (unitID, lessonID string, err error) {
	unitAt := strings.Index(location, unitMarker)
	lessonAt := strings.Index(location, lessonMarker)
	if unitAt < 0 || lessonAt < 0 || lessonAt < unitAt {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedLocation, location)
	}
	unitID = location[unitAt+len(unitMarker) : lessonAt]
	lessonID = location[lessonAt+len(lessonMarker):]
	if unitID == "" || lessonID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedLocation, location)
	}
	return unitID, lessonID, nil
}
