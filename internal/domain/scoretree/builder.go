package scoretree

import (
	"github.com/mobilecsp/activityscores/internal/domain/answers"
)

// Builder folds parsed answers, in arbitrary arrival order, into a score
// tree and an attempts table. It is owned by a single aggregation run; for
// a parallel page fold, use one Builder per page and reduce with Merge.
type Builder struct {
	tree     Tree
	attempts AttemptCounts
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		tree:     NewTree(),
		attempts: make(AttemptCounts),
	}
}

// Add folds one parsed answer. The attempt count increments for every
// answer regardless of whether the merge keeps or discards its score.
func (b *Builder) Add(a answers.ParsedAnswer) {
	b.attempts[a.QuestionID]++

	record := &ScoreRecord{
		UnitID:        a.UnitID,
		LessonID:      a.LessonID,
		Sequence:      a.Sequence,
		QuestionID:    a.QuestionID,
		QuestionType:  a.QuestionType,
		Timestamp:     a.Timestamp,
		Answers:       a.Answers,
		Score:         a.Score,
		WeightedScore: a.WeightedScore,
		Tallied:       a.Tallied,
		Attempts:      1,
	}
	if existing, ok := b.tree.Get(a.UnitID, a.LessonID, a.Sequence); ok {
		if existing.Timestamp > a.Timestamp {
			// Older event: keep the stored score, still count the attempt.
			kept := *existing
			kept.Attempts++
			b.tree.Put(&kept)
			return
		}
		record.Attempts = existing.Attempts + 1
	}
	b.tree.Put(record)
}

// Merge folds another builder's state into this one.
func (b *Builder) Merge(other *Builder) {
	b.tree.Merge(other.tree)
	b.attempts.Merge(other.attempts)
}

// Tree returns the folded score tree.
func (b *Builder) Tree() Tree {
	return b.tree
}

// Attempts returns the per-question attempt counts.
func (b *Builder) Attempts() AttemptCounts {
	return b.attempts
}
