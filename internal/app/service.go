// Package service provides the core aggregation service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mobilecsp/activityscores/internal/adapters/eventstore"
	"github.com/mobilecsp/activityscores/internal/adapters/repository"
	"github.com/mobilecsp/activityscores/internal/adapters/roster"
	"github.com/mobilecsp/activityscores/internal/domain/answers"
	"github.com/mobilecsp/activityscores/internal/domain/catalog"
	"github.com/mobilecsp/activityscores/internal/domain/model"
	"github.com/mobilecsp/activityscores/internal/domain/reconcile"
	"github.com/mobilecsp/activityscores/internal/domain/scoretree"
	"github.com/mobilecsp/activityscores/pkg/logger"
	"github.com/mobilecsp/activityscores/pkg/metrics"
)

// Report is one aggregation result over a set of students, keyed by
// student email. Date is the oldest snapshot contributing to the report,
// so callers can tell how stale the cheapest entry is.
type Report struct {
	Date     int64                              `json:"date"`
	Scores   map[string]scoretree.Tree          `json:"scores"`
	Attempts map[string]scoretree.AttemptCounts `json:"attempts"`
}

// Service wires the event source, catalog, roster and score cache into
// the per-student aggregation pipeline.
type Service struct {
	catalog catalog.Catalog
	events  eventstore.Source
	roster  roster.Roster
	cache   repository.Store

	parser     *answers.Parser
	reconciler *reconcile.Pass

	// Configuration
	batchSize   int
	reportEvery int
	workerCount int
	maxStudents int

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBatchSize sets the event scan page size.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithReportEvery sets the scan progress reporting interval.
func WithReportEvery(every int) Option {
	return func(s *Service) {
		if every > 0 {
			s.reportEvery = every
		}
	}
}

// WithWorkerCount sets the number of concurrent per-student recomputations.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxStudents caps how many students one aggregation call may cover.
func WithMaxStudents(max int) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxStudents = max
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over its collaborators with default configuration.
func New(cat catalog.Catalog, events eventstore.Source, ros roster.Roster, cache repository.Store, opts ...Option) *Service {
	s := &Service{
		catalog:     cat,
		events:      events,
		roster:      ros,
		cache:       cache,
		batchSize:   500,
		reportEvery: 1000,
		workerCount: runtime.NumCPU() * 2,
		maxStudents: 100,
		now:         time.Now,
		logger:      logger.Get().Named("service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.parser = answers.NewParser(answers.WithLogger(s.logger.Named("parser")))
	s.reconciler = reconcile.New(reconcile.WithLogger(s.logger.Named("reconcile")))
	return s
}

// Record appends one attempt event to the event source and returns the
// stored event with its assigned id and timestamp.
func (s *Service) Record(ctx context.Context, e model.AttemptEvent) (model.AttemptEvent, error) {
	return s.events.Append(ctx, e)
}

// job is one student's pending recomputation.
type job struct {
	student roster.Student
}

// result is one student's finished aggregation, cached or recomputed.
type result struct {
	email string
	entry repository.Entry
	err   error
}

// Aggregate returns the score report for the given students. Cached
// entries are served as-is unless forceRefresh is set; the rest are
// recomputed concurrently from the full event history and written back to
// the cache. User ids that resolve to no enrolled student are skipped,
// never fatal. The only propagated failure is event source
// unavailability.
func (s *Service) Aggregate(ctx context.Context, userIDs []string, forceRefresh bool) (Report, error) {
	if len(userIDs) > s.maxStudents {
		return Report{}, fmt.Errorf("%w: %d requested, limit %d", ErrTooManyStudents, len(userIDs), s.maxStudents)
	}

	students, entries := s.resolve(ctx, userIDs, forceRefresh)

	recomputed, err := s.recompute(ctx, students)
	if err != nil {
		return Report{}, err
	}
	entries = append(entries, recomputed...)

	report := Report{
		Scores:   make(map[string]scoretree.Tree, len(entries)),
		Attempts: make(map[string]scoretree.AttemptCounts, len(entries)),
	}
	for _, e := range entries {
		email := repository.StudentEmail(e.StudentKey)
		report.Scores[email] = e.Scores
		report.Attempts[email] = e.Attempts
		if date := e.SnapshotDate.Unix(); report.Date == 0 || date < report.Date {
			report.Date = date
		}
	}
	return report, nil
}

// resolve splits the requested user ids into students needing
// recomputation and entries served straight from the cache.
func (s *Service) resolve(ctx context.Context, userIDs []string, forceRefresh bool) ([]roster.Student, []repository.Entry) {
	var (
		pending []roster.Student
		cached  []repository.Entry
	)
	seen := make(map[string]struct{}, len(userIDs))
	for _, uid := range userIDs {
		student, err := s.roster.ByUserID(ctx, uid)
		if err != nil {
			metrics.RecordEventSkipped(answers.SkipReason(answers.ErrMissingStudent))
			s.logger.Warn(ctx, "user id has no enrollment record",
				logger.String("user_id", uid),
			)
			continue
		}
		if _, dup := seen[student.Email]; dup {
			continue
		}
		seen[student.Email] = struct{}{}

		if !forceRefresh {
			if entry, err := s.cache.Get(ctx, repository.CacheKey(student.Email)); err == nil {
				cached = append(cached, entry)
				continue
			}
		}
		pending = append(pending, student)
	}
	return pending, cached
}

// recompute runs the per-student pipeline over a bounded worker pool and
// collects the fresh entries.
func (s *Service) recompute(ctx context.Context, students []roster.Student) ([]repository.Entry, error) {
	if len(students) == 0 {
		return nil, nil
	}

	lookup := catalog.NewLookupContext(s.catalog)

	jobs := make(chan job)
	results := make(chan result, len(students))

	var wg sync.WaitGroup
	workers := s.workerCount
	if workers > len(students) {
		workers = len(students)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				entry, err := s.recomputeStudent(ctx, lookup, j.student)
				results <- result{email: j.student.Email, entry: entry, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, st := range students {
			select {
			case jobs <- job{student: st}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		entries  []repository.Entry
		firstErr error
	)
	for r := range results {
		if r.err != nil {
			metrics.RecordAggregationError()
			s.logger.Error(ctx, "student aggregation failed",
				logger.String("student", r.email),
				logger.Error(r.err),
			)
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		entries = append(entries, r.entry)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return entries, nil
}

// recomputeStudent rebuilds one student's score tree from the full event
// history, reconciles it against the catalog and writes it back to the
// cache.
func (s *Service) recomputeStudent(ctx context.Context, lookup *catalog.LookupContext, student roster.Student) (repository.Entry, error) {
	start := s.now()
	builder := scoretree.NewBuilder()

	scanned := 0
	opts := eventstore.ScanOptions{
		BatchSize:   s.batchSize,
		ReportEvery: s.reportEvery,
		Progress: func(n int) {
			s.logger.Debug(ctx, "scan progress",
				logger.String("student", student.Email),
				logger.Int("scanned", n),
			)
		},
	}
	err := s.events.Scan(ctx, []string{student.UserID}, opts, func(e model.AttemptEvent) error {
		scanned++
		parsed, err := s.parser.Parse(ctx, e, lookup)
		if err != nil {
			metrics.RecordEventSkipped(answers.SkipReason(err))
			return nil
		}
		metrics.RecordEventParsed()
		for _, a := range parsed {
			builder.Add(a)
		}
		return nil
	})
	metrics.RecordEventsScanned(scanned)
	if err != nil {
		if errors.Is(err, eventstore.ErrUnavailable) {
			return repository.Entry{}, err
		}
		return repository.Entry{}, fmt.Errorf("scan events for %s: %w", student.Email, err)
	}

	tree := builder.Tree()
	s.reconciler.Run(ctx, lookup, tree)

	entry := repository.Entry{
		StudentKey:   repository.CacheKey(student.Email),
		SnapshotDate: s.now(),
		Scores:       tree,
		Attempts:     builder.Attempts(),
	}
	s.cache.Put(ctx, entry)

	metrics.RecordStudentRecomputed()
	metrics.RecordRecomputeLatency(float64(s.now().Sub(start).Milliseconds()))
	s.logger.Info(ctx, "student scores recomputed",
		logger.String("student", student.Email),
		logger.Int("events_scanned", scanned),
		logger.Int("slots", tree.Len()),
	)
	return entry, nil
}

// Invalidate drops a student's cached entry so the next aggregation
// recomputes it.
func (s *Service) Invalidate(ctx context.Context, studentEmail string) {
	s.cache.Invalidate(ctx, repository.CacheKey(studentEmail))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"workerCount":   s.workerCount,
		"batchSize":     s.batchSize,
		"maxStudents":   s.maxStudents,
		"cachedEntries": s.cache.Len(context.Background()),
	}
}
