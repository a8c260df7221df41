// Package catalog defines the question catalog contract: descriptors for
// placed question instances, scoring rubrics, and grouped-question expansion.
package catalog

import "math"

// weightEpsilon separates "weight unset" from genuinely tiny weights. The
// legacy data stores unset weights as 0.0; an exact float compare would let
// near-zero weights slip through, so detection is epsilon-aware.
const weightEpsilon = 1e-9

// Descriptor describes one question instance placed in a lesson page.
// A grouped descriptor stands for a question group whose sub-questions
// occupy sequences Sequence, Sequence+1, ...
type Descriptor struct {
	InstanceID string
	QuestionID string
	UnitID     string
	LessonID   string
	Sequence   int
	Weight     float64
}

// WeightApplied reports whether the descriptor carries a usable weight.
// An unset (zero) weight means "no weighting", not "zero points".
func (d Descriptor) WeightApplied() bool {
	return math.Abs(d.Weight) >= weightEpsilon
}

// EffectiveWeight returns the multiplier to apply to scores and possible
// points: the descriptor's weight, or 1 when the weight is unset.
func (d Descriptor) EffectiveWeight() float64 {
	if d.WeightApplied() {
		return d.Weight
	}
	return 1
}

// Rubric is a question's scoring scheme: either ordered per-choice scores
// (multiple-choice style) or per-grader scores (free-response style).
type Rubric struct {
	Description string
	Choices     []float64 // per-choice scores, in display order
	Graders     []float64 // per-grader scores for free response
}

// Empty reports whether the rubric carries no scoring entries at all.
func (r Rubric) Empty() bool {
	return len(r.Choices) == 0 && len(r.Graders) == 0
}

// GroupItem is one sub-question of a grouped question, in group order.
type GroupItem struct {
	QuestionID string
	Rubric     Rubric
}

// Catalog maps attempt instances to descriptors and questions to rubrics.
// Implementations are read-only from the engine's point of view.
type Catalog interface {
	// DescriptorForInstance resolves an attempt's instance id.
	DescriptorForInstance(instanceID string) (Descriptor, bool)

	// RubricForQuestion resolves a single (non-grouped) question's rubric.
	RubricForQuestion(questionID string) (Rubric, bool)

	// ExpandGroup returns the ordered sub-questions of a grouped question.
	ExpandGroup(questionID string) ([]GroupItem, bool)

	// Descriptors returns every placed instance of the course.
	Descriptors() []Descriptor
}
