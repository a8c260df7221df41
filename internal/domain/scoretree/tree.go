// Package scoretree holds the per-student hierarchical score state: a typed
// unit -> lesson -> sequence map of score records plus per-question attempt
// counts.
package scoretree

// QuestionTypeNotCompleted marks placeholder records synthesized for catalog
// slots the student never attempted.
const QuestionTypeNotCompleted = "NotCompleted"

// ChoiceSummary is a redacted view of one rubric choice: its score and a
// letter label, never the choice text.
type ChoiceSummary struct {
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// ScoreRecord is the persisted record for one (unit, lesson, sequence) slot.
type ScoreRecord struct {
	UnitID         string          `json:"unit_id"`
	LessonID       string          `json:"lesson_id"`
	Sequence       int             `json:"sequence"`
	QuestionID     string          `json:"question_id"`
	Description    string          `json:"description,omitempty"`
	QuestionType   string          `json:"question_type"`
	Timestamp      int64           `json:"timestamp"`
	Answers        any             `json:"answers"`
	Score          float64         `json:"score"`
	WeightedScore  float64         `json:"weighted_score"`
	Tallied        bool            `json:"tallied"`
	PossiblePoints float64         `json:"possible_points"`
	Choices        []ChoiceSummary `json:"choices,omitempty"`
	Attempts       int             `json:"attempts"`
}

// AttemptCounts tallies every successfully parsed answer per question id,
// including answers whose score the merge later discards.
type AttemptCounts map[string]int

// Merge adds the counts of other into c.
func (c AttemptCounts) Merge(other AttemptCounts) {
	for id, n := range other {
		c[id] += n
	}
}

// Tree is a student's score state addressed by unit, lesson and sequence.
// Map iteration order is irrelevant; consumers address slots directly or
// serialize to JSON objects.
type Tree map[string]map[string]map[int]*ScoreRecord

// NewTree creates an empty score tree.
func NewTree() Tree {
	return make(Tree)
}

// Get returns the record at a slot, if any.
func (t Tree) Get(unitID, lessonID string, sequence int) (*ScoreRecord, bool) {
	lessons, ok := t[unitID]
	if !ok {
		return nil, false
	}
	slots, ok := lessons[lessonID]
	if !ok {
		return nil, false
	}
	r, ok := slots[sequence]
	return r, ok
}

// Put sets a slot unconditionally.
func (t Tree) Put(r *ScoreRecord) {
	lessons, ok := t[r.UnitID]
	if !ok {
		lessons = make(map[string]map[int]*ScoreRecord)
		t[r.UnitID] = lessons
	}
	slots, ok := lessons[r.LessonID]
	if !ok {
		slots = make(map[int]*ScoreRecord)
		lessons[r.LessonID] = slots
	}
	slots[r.Sequence] = r
}

// Upsert applies the last-recorded-wins merge rule: the record replaces the
// slot if the slot is empty or the incoming timestamp is greater than or
// equal to the stored one. Equal timestamps resolve last-processed-wins;
// duplicate deliveries carry identical payloads, so the outcome is
// identical either way. Returns true if the slot now holds r.
//
// The rule is commutative and associative over event sets, so folds may run
// in any order, including a parallel page reduce.
func (t Tree) Upsert(r *ScoreRecord) bool {
	existing, ok := t.Get(r.UnitID, r.LessonID, r.Sequence)
	if ok && existing.Timestamp > r.Timestamp {
		return false
	}
	t.Put(r)
	return true
}

// Merge folds every record of other into t under the Upsert rule. Attempt
// counts on colliding slots are summed so a parallel page reduce counts
// every event exactly once.
func (t Tree) Merge(other Tree) {
	for _, lessons := range other {
		for _, slots := range lessons {
			for _, r := range slots {
				existing, ok := t.Get(r.UnitID, r.LessonID, r.Sequence)
				if !ok {
					t.Put(r)
					continue
				}
				merged := *r
				if existing.Timestamp > r.Timestamp {
					merged = *existing
				}
				merged.Attempts = existing.Attempts + r.Attempts
				t.Put(&merged)
			}
		}
	}
}

// Len returns the number of populated slots.
func (t Tree) Len() int {
	n := 0
	for _, lessons := range t {
		for _, slots := range lessons {
			n += len(slots)
		}
	}
	return n
}

// Walk visits every record. Iteration order is unspecified.
func (t Tree) Walk(fn func(*ScoreRecord)) {
	for _, lessons := range t {
		for _, slots := range lessons {
			for _, r := range slots {
				fn(r)
			}
		}
	}
}
