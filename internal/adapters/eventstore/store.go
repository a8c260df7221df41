// Package eventstore defines the append-only attempt event source: events
// are recorded once and scanned in pages during aggregation.
package eventstore

import (
	"context"

	"github.com/mobilecsp/activityscores/internal/domain/model"
)

// Default scan configuration constants.
const (
	defaultBatchSize   = 500
	defaultReportEvery = 1000
)

// ScanOptions controls paging and progress reporting of a scan.
type ScanOptions struct {
	// BatchSize is the page size of the underlying query.
	BatchSize int

	// ReportEvery sets how many records pass between progress callbacks.
	ReportEvery int

	// Progress, when set, receives the running record count periodically so
	// long scans stay observable and cancellable.
	Progress func(scanned int)
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.ReportEvery <= 0 {
		o.ReportEvery = defaultReportEvery
	}
	return o
}

// Source is the queryable attempt event store.
type Source interface {
	// Append records a new attempt event, assigning an id and recorded-on
	// timestamp when absent, and returns the stored event.
	Append(ctx context.Context, e model.AttemptEvent) (model.AttemptEvent, error)

	// Scan streams every event of the given users to fn, oldest first,
	// fetched in pages of opts.BatchSize. A failing fn stops the scan and
	// surfaces its error; store failures surface as ErrUnavailable.
	Scan(ctx context.Context, userIDs []string, opts ScanOptions, fn func(model.AttemptEvent) error) error
}
