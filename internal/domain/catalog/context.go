package catalog

// LookupContext is the per-course lookup state shared by one aggregation
// run: instance descriptors plus rubric views split into single questions
// and grouped questions. It is built once per run and threaded through the
// parser and the reconciliation pass, never held as process-wide state.
type LookupContext struct {
	instances []Descriptor
	byID      map[string]Descriptor
	single    map[string]Rubric
	grouped   map[string][]GroupItem
}

// NewLookupContext snapshots the catalog into a lookup context.
func NewLookupContext(c Catalog) *LookupContext {
	lc := &LookupContext{
		byID:    make(map[string]Descriptor),
		single:  make(map[string]Rubric),
		grouped: make(map[string][]GroupItem),
	}
	lc.instances = c.Descriptors()
	for _, d := range lc.instances {
		lc.byID[d.InstanceID] = d
		if _, seen := lc.single[d.QuestionID]; seen {
			continue
		}
		if _, seen := lc.grouped[d.QuestionID]; seen {
			continue
		}
		if r, ok := c.RubricForQuestion(d.QuestionID); ok {
			lc.single[d.QuestionID] = r
			continue
		}
		if items, ok := c.ExpandGroup(d.QuestionID); ok {
			lc.grouped[d.QuestionID] = items
		}
	}
	return lc
}

// DescriptorForInstance resolves an attempt's instance id.
func (lc *LookupContext) DescriptorForInstance(instanceID string) (Descriptor, bool) {
	d, ok := lc.byID[instanceID]
	return d, ok
}

// SingleRubric returns the rubric of a non-grouped question.
func (lc *LookupContext) SingleRubric(questionID string) (Rubric, bool) {
	r, ok := lc.single[questionID]
	return r, ok
}

// GroupItems returns the ordered sub-questions of a grouped question.
func (lc *LookupContext) GroupItems(questionID string) ([]GroupItem, bool) {
	items, ok := lc.grouped[questionID]
	return items, ok
}

// Descriptors returns every placed instance of the course, in catalog order.
func (lc *LookupContext) Descriptors() []Descriptor {
	return lc.instances
}
