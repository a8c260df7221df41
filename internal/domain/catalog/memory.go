package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Option applies a configuration option to the MemoryCatalog.
type Option func(*MemoryCatalog)

// WithInstance registers a placed question instance.
func WithInstance(d Descriptor) Option {
	return func(c *MemoryCatalog) {
		c.instances = append(c.instances, d)
	}
}

// WithRubric registers a single question's rubric.
func WithRubric(questionID string, r Rubric) Option {
	return func(c *MemoryCatalog) {
		c.rubrics[questionID] = r
	}
}

// WithGroup registers a grouped question and its ordered sub-questions.
// Sub-question rubrics are registered separately via WithRubric.
func WithGroup(groupID string, questionIDs ...string) Option {
	return func(c *MemoryCatalog) {
		c.groups[groupID] = append([]string(nil), questionIDs...)
	}
}

// MemoryCatalog implements Catalog over in-memory tables.
type MemoryCatalog struct {
	instances []Descriptor
	rubrics   map[string]Rubric
	groups    map[string][]string // group id -> ordered sub-question ids
}

// NewMemoryCatalog creates an in-memory catalog with configuration options.
func NewMemoryCatalog(opts ...Option) *MemoryCatalog {
	c := &MemoryCatalog{
		rubrics: make(map[string]Rubric),
		groups:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DescriptorForInstance resolves an attempt's instance id.
func (c *MemoryCatalog) DescriptorForInstance(instanceID string) (Descriptor, bool) {
	for _, d := range c.instances {
		if d.InstanceID == instanceID {
			return d, true
		}
	}
	return Descriptor{}, false
}

// RubricForQuestion resolves a single question's rubric. Grouped question
// ids resolve via ExpandGroup instead.
func (c *MemoryCatalog) RubricForQuestion(questionID string) (Rubric, bool) {
	if _, grouped := c.groups[questionID]; grouped {
		return Rubric{}, false
	}
	r, ok := c.rubrics[questionID]
	return r, ok
}

// ExpandGroup returns the ordered sub-questions of a grouped question.
func (c *MemoryCatalog) ExpandGroup(questionID string) ([]GroupItem, bool) {
	ids, ok := c.groups[questionID]
	if !ok {
		return nil, false
	}
	items := make([]GroupItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, GroupItem{QuestionID: id, Rubric: c.rubrics[id]})
	}
	return items, true
}

// Descriptors returns every placed instance of the course.
func (c *MemoryCatalog) Descriptors() []Descriptor {
	return append([]Descriptor(nil), c.instances...)
}

// catalogFile mirrors the JSON shape of an exported course catalog.
type catalogFile struct {
	Instances []struct {
		InstanceID string  `json:"instance_id"`
		QuestionID string  `json:"question_id"`
		UnitID     string  `json:"unit_id"`
		LessonID   string  `json:"lesson_id"`
		Sequence   int     `json:"sequence"`
		Weight     float64 `json:"weight"`
	} `json:"instances"`
	Questions []struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Choices     []float64 `json:"choices,omitempty"`
		Graders     []float64 `json:"graders,omitempty"`
	} `json:"questions"`
	Groups []struct {
		ID        string   `json:"id"`
		Questions []string `json:"questions"`
	} `json:"groups"`
}

// LoadFile reads an exported course catalog from a JSON file.
func LoadFile(path string) (*MemoryCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var cf catalogFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}

	opts := make([]Option, 0, len(cf.Instances)+len(cf.Questions)+len(cf.Groups))
	for _, in := range cf.Instances {
		opts = append(opts, WithInstance(Descriptor{
			InstanceID: in.InstanceID,
			QuestionID: in.QuestionID,
			UnitID:     in.UnitID,
			LessonID:   in.LessonID,
			Sequence:   in.Sequence,
			Weight:     in.Weight,
		}))
	}
	for _, q := range cf.Questions {
		opts = append(opts, WithRubric(q.ID, Rubric{
			Description: q.Description,
			Choices:     q.Choices,
			Graders:     q.Graders,
		}))
	}
	for _, g := range cf.Groups {
		opts = append(opts, WithGroup(g.ID, g.Questions...))
	}
	return NewMemoryCatalog(opts...), nil
}
