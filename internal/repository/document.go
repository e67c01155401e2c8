package repository

import (
	"context"
	"time"

	"stroketraining/internal/model"
)

// Counter names an engagement counter column. Counters are incremented
// server-side in a single statement so retried calls never read stale values.
type Counter string

const (
	CounterView     Counter = "view_count"
	CounterDownload Counter = "download_count"
)

// ListFilter holds the equality filters of a listing query. Zero values mean
// "no filter"; all provided filters are combined as a conjunction. Results
// are ordered newest-created-first and capped at Limit.
type ListFilter struct {
	Category  model.Category
	Status    model.Status
	CreatedBy string
	Limit     int
}

// StatusUpdate describes one workflow move. From is the status the caller
// observed; the write is conditional on it so concurrent moves cannot bypass
// the transition table. Approve stamps the approval fields in the same write.
type StatusUpdate struct {
	ID      string
	From    model.Status
	To      model.Status
	ActorID string
	At      time.Time
	Approve bool
}

// DocumentRepository defines data access for documents using SQL only.
// No business logic here — the service layer owns the workflow rules.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID; sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns documents matching the filter, newest first.
	List(ctx context.Context, f ListFilter) ([]model.Document, error)

	// UpdateStatus performs the conditional status write described by u.
	// It reports false when no row matched (unknown id or a concurrent
	// status change); the stored record is untouched in that case.
	UpdateStatus(ctx context.Context, u StatusUpdate) (bool, error)

	// IncrementCounter atomically bumps the named counter by one.
	IncrementCounter(ctx context.Context, id string, c Counter) error

	// AddRating folds one 1..5 star rating into the rating sum and count.
	AddRating(ctx context.Context, id string, stars int) error

	// Delete removes a document row by ID. Returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
