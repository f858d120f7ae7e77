package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"learninglog-backend/application/ports"
	"learninglog-backend/application/services"
	"learninglog-backend/domain/learninglog"
	"learninglog-backend/infrastructure/observability"
	"learninglog-backend/infrastructure/persistence/sqlite"
	apperrors "learninglog-backend/pkg/errors"
	"learninglog-backend/pkg/relay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newService(t *testing.T, opts ...services.Option) *services.LogService {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return services.NewLogService(db, zap.NewNop(), observability.NewCollector("test"), opts...)
}

func validInput() learninglog.CreateInput {
	return learninglog.CreateInput{
		Title:      "X",
		Reflection: "Y",
		Tags:       []string{"a"},
		TimeSpent:  10,
	}
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	at := time.Date(2026, 8, 1, 10, 0, 0, 123456789, time.UTC)
	svc := newService(t, services.WithClock(func() time.Time { return at }))

	log, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	// Millisecond precision matches the wire format.
	assert.Equal(t, at.Truncate(time.Millisecond), log.CreatedAt)
}

func TestCreateValidationFailure(t *testing.T) {
	svc := newService(t)

	in := validInput()
	in.TimeSpent = 1500
	_, err := svc.Create(context.Background(), in)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "Keep it under 24 hours", appErr.Fields["timeSpent"])

	in = validInput()
	in.Tags = []string{}
	_, err = svc.Create(context.Background(), in)

	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Add at least one tag", appErr.Fields["tags"])
}

func TestNodeRoundTrip(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	got, err := svc.Node(ctx, relay.ToGlobalID(relay.NodeTypeLearningLog, created.ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "X", got.Title)
}

func TestNodeEdgeCases(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	t.Run("malformed id errors", func(t *testing.T) {
		_, err := svc.Node(ctx, "not-base64!!")
		assert.True(t, apperrors.IsCode(err, apperrors.CodeMalformedID))
	})

	t.Run("unknown node type resolves to null", func(t *testing.T) {
		got, err := svc.Node(ctx, relay.ToGlobalID(relay.NodeType("Widget"), "42"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("missing row resolves to null", func(t *testing.T) {
		got, err := svc.Node(ctx, relay.ToGlobalID(relay.NodeTypeLearningLog, "missing"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestListArgumentErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, 0, nil, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidPageSize))

	bad := "%%%"
	_, err = svc.List(ctx, 5, &bad, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCursor))

	_, err = svc.List(ctx, 5, nil, &services.FilterInput{From: "not a date"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidDate, appErr.Code)
	assert.Equal(t, "Invalid from date", appErr.Message)

	_, err = svc.List(ctx, 5, nil, &services.FilterInput{To: "also not a date"})
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid to date", appErr.Message)
}

// Two identical calls against an unchanged data set return identical
// results; hasPreviousPage mirrors the presence of the cursor.
func TestListDeterminismAndPageInfo(t *testing.T) {
	tick := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	svc := newService(t, services.WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		in := validInput()
		in.Title = fmt.Sprintf("entry %d", i)
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, 3, nil, nil)
	require.NoError(t, err)
	second, err := svc.List(ctx, 3, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, first.HasNextPage)
	assert.False(t, first.HasPreviousPage)

	cursor := relay.ToCursor(first.Items[len(first.Items)-1].ID)
	rest, err := svc.List(ctx, 3, &cursor, nil)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 2)
	assert.False(t, rest.HasNextPage)
	assert.True(t, rest.HasPreviousPage)
}

func TestUpdateFieldSubset(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	in := validInput()
	in.SourceURL = strPtr("https://example.com/article")
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)
	globalID := relay.ToGlobalID(relay.NodeTypeLearningLog, created.ID)

	// Only title changes; everything else is untouched.
	updated, err := svc.Update(ctx, globalID, learninglog.UpdateInput{Title: strPtr("New title")})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, created.Reflection, updated.Reflection)
	require.NotNil(t, updated.SourceURL)

	// Explicitly clearing the URL: key present, value null.
	updated, err = svc.Update(ctx, globalID, learninglog.UpdateInput{SourceURLSet: true})
	require.NoError(t, err)
	assert.Nil(t, updated.SourceURL)

	// id and createdAt are immutable through updates.
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
}

func TestUpdateErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	globalID := relay.ToGlobalID(relay.NodeTypeLearningLog, created.ID)

	t.Run("empty subset", func(t *testing.T) {
		_, err := svc.Update(ctx, globalID, learninglog.UpdateInput{})
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	})

	t.Run("wrong node type", func(t *testing.T) {
		wrongType := relay.ToGlobalID(relay.NodeType("Widget"), created.ID)
		_, err := svc.Update(ctx, wrongType, learninglog.UpdateInput{Title: strPtr("x")})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeUnsupportedType))
	})

	t.Run("missing row", func(t *testing.T) {
		missing := relay.ToGlobalID(relay.NodeTypeLearningLog, "missing")
		_, err := svc.Update(ctx, missing, learninglog.UpdateInput{Title: strPtr("x")})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	})

	t.Run("present field fails its constraint", func(t *testing.T) {
		_, err := svc.Update(ctx, globalID, learninglog.UpdateInput{TimeSpent: intPtr(-5)})
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "Time spent cannot be negative", appErr.Fields["timeSpent"])
	})
}

func TestDeleteThenNode(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	globalID := relay.ToGlobalID(relay.NodeTypeLearningLog, created.ID)

	deletedID, err := svc.Delete(ctx, globalID)
	require.NoError(t, err)
	assert.Equal(t, globalID, deletedID)

	got, err := svc.Node(ctx, globalID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Delete is not idempotent.
	_, err = svc.Delete(ctx, globalID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

// failingRepo simulates a storage outage on the read path.
type failingRepo struct{}

func (f *failingRepo) Create(context.Context, *learninglog.Log) error { return errors.New("down") }
func (f *failingRepo) GetByID(context.Context, string) (*learninglog.Log, error) {
	return nil, errors.New("down")
}
func (f *failingRepo) List(context.Context, ports.ListQuery) (*ports.ListPage, error) {
	return nil, errors.New("down")
}
func (f *failingRepo) Update(context.Context, *learninglog.Log) error { return errors.New("down") }
func (f *failingRepo) Delete(context.Context, string) error           { return errors.New("down") }

// Read paths degrade on storage failure; mutations propagate it.
func TestStorageFailurePolicy(t *testing.T) {
	svc := services.NewLogService(&failingRepo{}, zap.NewNop(), observability.NewCollector("test"))
	ctx := context.Background()

	result, err := svc.List(ctx, 5, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.False(t, result.HasNextPage)

	got, err := svc.Node(ctx, relay.ToGlobalID(relay.NodeTypeLearningLog, "any"))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Create(ctx, validInput())
	assert.Error(t, err)
}
