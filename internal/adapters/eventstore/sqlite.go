package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mobilecsp/activityscores/internal/domain/model"
	"github.com/mobilecsp/activityscores/pkg/logger"

	_ "modernc.org/sqlite" // sqlite driver
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

const schema = `
CREATE TABLE IF NOT EXISTS attempt_events (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    source      TEXT NOT NULL,
    recorded_on INTEGER NOT NULL,
    data        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempt_events_user ON attempt_events (user_id, recorded_on);
`

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithClock overrides the timestamp source used for appended events.
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// SQLiteStore implements Source on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger logger.Logger
}

// OpenSQLite opens (creating if necessary) the event database at path.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", ErrUnavailable, err)
	}

	s := &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: logger.Get().Named("eventstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append records a new attempt event.
func (s *SQLiteStore) Append(ctx context.Context, e model.AttemptEvent) (model.AttemptEvent, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedOn.IsZero() {
		e.RecordedOn = s.now()
	}

	query, args, err := sqlBuilder.
		Insert("attempt_events").
		Columns("id", "user_id", "source", "recorded_on", "data").
		Values(e.ID, e.UserID, e.Source, e.RecordedOn.Unix(), e.Data).
		ToSql()
	if err != nil {
		return model.AttemptEvent{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return model.AttemptEvent{}, fmt.Errorf("%w: append event: %w", ErrUnavailable, err)
	}

	s.logger.Debug(ctx, "event appended",
		logger.String("event_id", e.ID),
		logger.String("user_id", e.UserID),
		logger.String("source", e.Source),
	)
	return e, nil
}

// Scan streams events for the given users, oldest first, in pages.
func (s *SQLiteStore) Scan(ctx context.Context, userIDs []string, opts ScanOptions, fn func(model.AttemptEvent) error) error {
	if len(userIDs) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	scanned := 0
	for offset := uint64(0); ; offset += uint64(opts.BatchSize) {
		events, err := s.page(ctx, userIDs, opts.BatchSize, offset)
		if err != nil {
			return err
		}
		for _, e := range events {
			if err := fn(e); err != nil {
				return err
			}
			scanned++
			if opts.Progress != nil && scanned%opts.ReportEvery == 0 {
				opts.Progress(scanned)
			}
		}
		if len(events) < opts.BatchSize {
			break
		}
	}
	if opts.Progress != nil && scanned%opts.ReportEvery != 0 {
		opts.Progress(scanned)
	}
	return nil
}

func (s *SQLiteStore) page(ctx context.Context, userIDs []string, limit int, offset uint64) ([]model.AttemptEvent, error) {
	query, args, err := sqlBuilder.
		Select("id", "user_id", "source", "recorded_on", "data").
		From("attempt_events").
		Where(squirrel.Eq{"user_id": userIDs}).
		OrderBy("recorded_on ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var events []model.AttemptEvent
	for rows.Next() {
		var e model.AttemptEvent
		var recordedOn int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Source, &recordedOn, &e.Data); err != nil {
			return nil, fmt.Errorf("%w: scan event row: %w", ErrUnavailable, err)
		}
		e.RecordedOn = time.Unix(recordedOn, 0).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate events: %w", ErrUnavailable, err)
	}
	return events, nil
}
