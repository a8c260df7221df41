// Package roster resolves opaque event user ids to enrolled students.
package roster

import (
	"context"
	"fmt"
	"sync"
)

// Student is an enrolled student as known to the roster.
type Student struct {
	UserID string
	Email  string
	Name   string
}

// Roster looks up enrolled students by their event user id.
type Roster interface {
	// ByUserID resolves a user id to an enrolled student.
	// Returns ErrNotFound for ids without an enrollment record.
	ByUserID(ctx context.Context, userID string) (Student, error)
}

// Option applies a configuration option to the MemoryRoster.
type Option func(*MemoryRoster)

// WithStudent pre-registers a student.
func WithStudent(s Student) Option {
	return func(r *MemoryRoster) {
		r.students[s.UserID] = s
	}
}

// MemoryRoster implements Roster with a mutex-guarded map.
type MemoryRoster struct {
	mu       sync.RWMutex
	students map[string]Student
}

// NewMemoryRoster creates an in-memory roster with configuration options.
func NewMemoryRoster(opts ...Option) *MemoryRoster {
	r := &MemoryRoster{
		students: make(map[string]Student),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers or replaces a student.
func (r *MemoryRoster) Add(s Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[s.UserID] = s
}

// ByUserID resolves a user id to an enrolled student.
func (r *MemoryRoster) ByUserID(ctx context.Context, userID string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.students[userID]
	if !ok {
		return Student{}, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return s, nil
}

// Identity treats every user id as its own email address. It serves
// deployments where events already carry the student's email as the
// user id and no separate enrollment record exists.
type Identity struct{}

// ByUserID returns a student whose email and key are the user id itself.
func (Identity) ByUserID(ctx context.Context, userID string) (Student, error) {
	return Student{UserID: userID, Email: userID}, nil
}
