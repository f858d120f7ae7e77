// Package ports declares the interfaces the application layer expects
// its storage adapters to satisfy.
package ports

import (
	"context"
	"time"

	"learninglog-backend/domain/learninglog"
)

// ListFilter is the compiled, storage-ready form of the API filter input.
// Date bounds are already parsed; tag matching is exact-string (inputs
// were trimmed at the mutation boundary, not here).
type ListFilter struct {
	// TagsAny matches entries carrying at least one of these tags.
	TagsAny []string
	// TagsAll matches entries carrying every one of these tags.
	TagsAll []string
	// Query is a case-insensitive substring matched against title or
	// reflection. Empty means no text clause.
	Query string
	// From/To bound createdAt inclusively on both ends.
	From *time.Time
	To   *time.Time
}

// ListQuery describes one forward page over the canonical ordering
// (createdAt descending, ties broken by id descending).
type ListQuery struct {
	// First is the page size. Validated positive before it reaches the
	// repository.
	First int
	// AfterID positions the page strictly after the row with this
	// storage id, using that row's (createdAt, id) tuple as the seek
	// key. Empty means start from the newest row.
	AfterID string
	// Filter narrows the result set; nil matches everything.
	Filter *ListFilter
}

// ListPage is one window of the canonical ordering.
type ListPage struct {
	Items []learninglog.Log
	// HasNextPage reports whether a row exists past the last item.
	HasNextPage bool
}

// LearningLogRepository persists learning-log entries. Implementations
// provide per-statement atomicity; the application layer never issues
// cross-statement transactions.
type LearningLogRepository interface {
	Create(ctx context.Context, log *learninglog.Log) error
	GetByID(ctx context.Context, id string) (*learninglog.Log, error)
	List(ctx context.Context, q ListQuery) (*ListPage, error)
	Update(ctx context.Context, log *learninglog.Log) error
	Delete(ctx context.Context, id string) error
}
