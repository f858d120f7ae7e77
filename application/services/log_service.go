// Package services contains the application layer: orchestration between
// the API surface, the domain rules and the storage ports.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"learninglog-backend/application/ports"
	"learninglog-backend/domain/learninglog"
	"learninglog-backend/infrastructure/observability"
	apperrors "learninglog-backend/pkg/errors"
	"learninglog-backend/pkg/relay"
)

// FilterInput is the raw API filter before compilation. Date bounds
// arrive as ISO-8601 strings and are parsed here; unparseable values
// fail the request naming the offending field.
type FilterInput struct {
	TagsAny []string
	TagsAll []string
	Q       string
	From    string
	To      string
}

// ListResult is one resolved page plus the page-info flags.
type ListResult struct {
	Items       []learninglog.Log
	HasNextPage bool
	// HasPreviousPage is true iff a cursor was supplied. The resolver
	// does not verify that earlier rows actually exist, so it can
	// report true even when the cursor points at the newest row; the
	// client only uses it for backward-paging affordances it never
	// renders, which is why the approximation is acceptable.
	HasPreviousPage bool
}

// LogService implements the learning-log operations behind the GraphQL
// resolvers. Each call is stateless and maps to at most one storage
// statement besides cursor/row lookups.
type LogService struct {
	repo    ports.LearningLogRepository
	logger  *zap.Logger
	metrics *observability.Collector

	now   func() time.Time
	newID func() string
}

// Option customizes a LogService; used by tests to pin the clock and id
// sequence.
type Option func(*LogService)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *LogService) { s.now = now }
}

// WithIDGenerator overrides the storage-id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *LogService) { s.newID = newID }
}

// NewLogService creates a new LogService.
func NewLogService(repo ports.LearningLogRepository, logger *zap.Logger, metrics *observability.Collector, opts ...Option) *LogService {
	s := &LogService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, assigns id and createdAt and inserts the
// entry. Timestamps are truncated to millisecond precision to match the
// wire format exactly.
func (s *LogService) Create(ctx context.Context, in learninglog.CreateInput) (*learninglog.Log, error) {
	if err := learninglog.ValidateCreate(&in); err != nil {
		return nil, err
	}

	log := &learninglog.Log{
		ID:         s.newID(),
		Title:      in.Title,
		Reflection: in.Reflection,
		Tags:       in.Tags,
		TimeSpent:  in.TimeSpent,
		SourceURL:  in.SourceURL,
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return nil, err
	}

	s.logger.Info("learning log created",
		zap.String("id", log.ID),
		zap.Int("tags", len(log.Tags)),
		zap.Int("timeSpent", log.TimeSpent),
	)
	s.metrics.LogsCreated.Inc()

	return log, nil
}

// Node resolves a global id to its entry. Unknown node types and missing
// rows both resolve to nil without error; only a malformed id fails.
// Storage failures on this read path degrade to nil as well.
func (s *LogService) Node(ctx context.Context, globalID string) (*learninglog.Log, error) {
	nodeType, id, err := relay.FromGlobalID(globalID)
	if err != nil {
		return nil, err
	}
	if nodeType != relay.NodeTypeLearningLog {
		return nil, nil
	}

	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, nil
		}
		s.logger.Warn("node lookup degraded to null after storage failure",
			zap.String("id", id), zap.Error(err))
		return nil, nil
	}
	return log, nil
}

// List executes the cursor-paginated, filtered query. Storage failures
// degrade to an empty page rather than failing the request.
func (s *LogService) List(ctx context.Context, first int, after *string, filter *FilterInput) (*ListResult, error) {
	if first <= 0 {
		return nil, apperrors.NewInvalidPageSizeError()
	}

	q := ports.ListQuery{First: first}

	if after != nil {
		afterID, err := relay.FromCursor(*after)
		if err != nil {
			return nil, err
		}
		q.AfterID = afterID
	}

	compiled, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	q.Filter = compiled

	result := &ListResult{
		Items:           []learninglog.Log{},
		HasPreviousPage: after != nil,
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("list degraded to empty page after storage failure", zap.Error(err))
		s.metrics.ListDegradations.Inc()
		return result, nil
	}

	result.Items = page.Items
	result.HasNextPage = page.HasNextPage
	return result, nil
}

// Update decodes and type-checks the global id, validates the present
// fields and rewrites the row. Unlike reads, storage failures propagate.
func (s *LogService) Update(ctx context.Context, globalID string, in learninglog.UpdateInput) (*learninglog.Log, error) {
	if err := learninglog.ValidateUpdate(&in); err != nil {
		return nil, err
	}

	nodeType, id, err := relay.FromGlobalID(globalID)
	if err != nil {
		return nil, err
	}
	if nodeType != relay.NodeTypeLearningLog {
		return nil, apperrors.NewUnsupportedTypeError()
	}

	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		log.Title = *in.Title
	}
	if in.Reflection != nil {
		log.Reflection = *in.Reflection
	}
	if in.Tags != nil {
		log.Tags = *in.Tags
	}
	if in.TimeSpent != nil {
		log.TimeSpent = *in.TimeSpent
	}
	if in.SourceURLSet {
		log.SourceURL = in.SourceURL
	}

	if err := s.repo.Update(ctx, log); err != nil {
		return nil, err
	}

	s.logger.Info("learning log updated", zap.String("id", log.ID))
	s.metrics.LogsUpdated.Inc()

	return log, nil
}

// Delete decodes and type-checks the global id and removes the row.
// Deleting an id that does not exist is an error, consistently with the
// storage layer; it returns the original global id on success.
func (s *LogService) Delete(ctx context.Context, globalID string) (string, error) {
	nodeType, id, err := relay.FromGlobalID(globalID)
	if err != nil {
		return "", err
	}
	if nodeType != relay.NodeTypeLearningLog {
		return "", apperrors.NewUnsupportedTypeError()
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return "", err
	}

	s.logger.Info("learning log deleted", zap.String("id", id))
	s.metrics.LogsDeleted.Inc()

	return globalID, nil
}

// dateLayouts are the accepted spellings for filter date bounds.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(value, field string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewInvalidDateError(field)
}

// compileFilter parses the raw filter into its storage-ready form. An
// absent or all-empty filter compiles to nil, which matches everything.
func compileFilter(f *FilterInput) (*ports.ListFilter, error) {
	if f == nil {
		return nil, nil
	}

	compiled := &ports.ListFilter{}
	active := false

	if len(f.TagsAny) > 0 {
		compiled.TagsAny = f.TagsAny
		active = true
	}
	if len(f.TagsAll) > 0 {
		compiled.TagsAll = f.TagsAll
		active = true
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		compiled.Query = q
		active = true
	}
	if f.From != "" {
		from, err := parseDate(f.From, "from")
		if err != nil {
			return nil, err
		}
		compiled.From = &from
		active = true
	}
	if f.To != "" {
		to, err := parseDate(f.To, "to")
		if err != nil {
			return nil, err
		}
		compiled.To = &to
		active = true
	}

	if !active {
		return nil, nil
	}
	return compiled, nil
}
