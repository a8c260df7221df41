// Package reconcile completes a student's score tree against the course
// catalog: every catalog slot ends up with exactly one record, real or
// placeholder, carrying its possible points and a redacted choice summary.
package reconcile

import (
	"context"

	"github.com/mobilecsp/activityscores/internal/domain/catalog"
	"github.com/mobilecsp/activityscores/internal/domain/scoretree"
	"github.com/mobilecsp/activityscores/pkg/logger"
)

// Option applies a configuration option to the Pass.
type Option func(*Pass)

// WithLogger sets a custom logger for the pass.
func WithLogger(l logger.Logger) Option {
	return func(p *Pass) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pass backfills missing slots and computes possible points.
type Pass struct {
	logger logger.Logger
}

// New creates a reconciliation pass with configuration options.
func New(opts ...Option) *Pass {
	p := &Pass{
		logger: logger.Get().Named("reconcile"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run walks every catalog descriptor and fills the tree in place. Grouped
// descriptors expand to one slot per sub-question with sequences
// incrementing from the group's base. A descriptor that resolves to no
// rubric at all defaults its slot's possible points to 1; it never fails
// the pass.
func (p *Pass) Run(ctx context.Context, lookup *catalog.LookupContext, tree scoretree.Tree) {
	for _, desc := range lookup.Descriptors() {
		if rubric, ok := lookup.SingleRubric(desc.QuestionID); ok {
			p.fill(tree, desc, desc.QuestionID, desc.Sequence, rubric, true)
			continue
		}
		if items, ok := lookup.GroupItems(desc.QuestionID); ok {
			for i, item := range items {
				p.fill(tree, desc, item.QuestionID, desc.Sequence+i, item.Rubric, true)
			}
			continue
		}
		p.logger.Warn(ctx, "no rubric for descriptor",
			logger.String("instance_id", desc.InstanceID),
			logger.String("question_id", desc.QuestionID),
		)
		p.fill(tree, desc, desc.QuestionID, desc.Sequence, catalog.Rubric{}, false)
	}
}

// fill completes one slot: an existing record keeps its scored fields and
// gains possible points, choices and description; an empty slot gets a
// placeholder.
func (p *Pass) fill(tree scoretree.Tree, desc catalog.Descriptor, questionID string, sequence int, rubric catalog.Rubric, hasRubric bool) {
	possible := PossiblePoints(rubric, desc, hasRubric)
	choices := ChoicesSummary(rubric)

	if existing, ok := tree.Get(desc.UnitID, desc.LessonID, sequence); ok {
		updated := *existing
		updated.PossiblePoints = possible
		updated.Choices = choices
		updated.Description = rubric.Description
		tree.Put(&updated)
		return
	}

	tree.Put(&scoretree.ScoreRecord{
		UnitID:         desc.UnitID,
		LessonID:       desc.LessonID,
		Sequence:       sequence,
		QuestionID:     questionID,
		Description:    rubric.Description,
		QuestionType:   scoretree.QuestionTypeNotCompleted,
		Timestamp:      0,
		Answers:        "",
		Score:          0,
		WeightedScore:  0,
		Tallied:        false,
		PossiblePoints: possible,
		Choices:        choices,
		Attempts:       0,
	})
}

// PossiblePoints sums the strictly positive rubric scores (zero and
// negative distractor entries are deliberately excluded) and applies the
// descriptor's weight when one is set. Without a rubric the slot is worth
// 1 point.
func PossiblePoints(rubric catalog.Rubric, desc catalog.Descriptor, hasRubric bool) float64 {
	if !hasRubric || rubric.Empty() {
		return 1
	}
	entries := rubric.Choices
	if len(entries) == 0 {
		entries = rubric.Graders
	}
	possible := 0.0
	for _, score := range entries {
		if score > 0 {
			possible += score
		}
	}
	return possible * desc.EffectiveWeight()
}

// ChoicesSummary redacts a rubric's choices to score plus letter label in
// rubric order: A, B, C, ...
func ChoicesSummary(rubric catalog.Rubric) []scoretree.ChoiceSummary {
	if len(rubric.Choices) == 0 {
		return nil
	}
	out := make([]scoretree.ChoiceSummary, 0, len(rubric.Choices))
	for i, score := range rubric.Choices {
		out = append(out, scoretree.ChoiceSummary{
			Score: score,
			Text:  string(rune('A' + i)),
		})
	}
	return out
}
