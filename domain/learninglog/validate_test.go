package learninglog_test

import (
	"strings"
	"testing"

	"learninglog-backend/domain/learninglog"
	apperrors "learninglog-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validCreateInput() learninglog.CreateInput {
	return learninglog.CreateInput{
		Title:      "Learned Go generics",
		Reflection: "Type parameters finally clicked.",
		Tags:       []string{"go"},
		TimeSpent:  30,
	}
}

func fieldErrorsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeValidation, appErr.Code)
	return appErr.Fields
}

func TestValidateCreateValid(t *testing.T) {
	in := validCreateInput()
	in.SourceURL = strPtr("  https://go.dev/blog/intro-generics  ")

	require.NoError(t, learninglog.ValidateCreate(&in))
	assert.Equal(t, "https://go.dev/blog/intro-generics", *in.SourceURL)
}

func TestValidateCreateFieldViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*learninglog.CreateInput)
		field   string
		message string
	}{
		{
			name:    "blank title",
			mutate:  func(in *learninglog.CreateInput) { in.Title = "   " },
			field:   "title",
			message: "Title is required",
		},
		{
			name:    "overlong title",
			mutate:  func(in *learninglog.CreateInput) { in.Title = strings.Repeat("x", 121) },
			field:   "title",
			message: "Keep it concise",
		},
		{
			name:    "blank reflection",
			mutate:  func(in *learninglog.CreateInput) { in.Reflection = "" },
			field:   "reflection",
			message: "Reflection is required",
		},
		{
			name:    "overlong reflection",
			mutate:  func(in *learninglog.CreateInput) { in.Reflection = strings.Repeat("x", 4001) },
			field:   "reflection",
			message: "Reflection is too long",
		},
		{
			name:    "no tags",
			mutate:  func(in *learninglog.CreateInput) { in.Tags = []string{} },
			field:   "tags",
			message: "Add at least one tag",
		},
		{
			name: "too many tags",
			mutate: func(in *learninglog.CreateInput) {
				in.Tags = make([]string, 13)
				for i := range in.Tags {
					in.Tags[i] = "t"
				}
			},
			field:   "tags",
			message: "Limit to 12 tags",
		},
		{
			name:    "blank tag",
			mutate:  func(in *learninglog.CreateInput) { in.Tags = []string{"go", "  "} },
			field:   "tags",
			message: "Tag cannot be empty",
		},
		{
			name:    "negative time",
			mutate:  func(in *learninglog.CreateInput) { in.TimeSpent = -1 },
			field:   "timeSpent",
			message: "Time spent cannot be negative",
		},
		{
			name:    "time over a day",
			mutate:  func(in *learninglog.CreateInput) { in.TimeSpent = 1500 },
			field:   "timeSpent",
			message: "Keep it under 24 hours",
		},
		{
			name:    "bad url",
			mutate:  func(in *learninglog.CreateInput) { in.SourceURL = strPtr("not a url") },
			field:   "sourceUrl",
			message: "Provide a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(&in)

			fields := fieldErrorsOf(t, learninglog.ValidateCreate(&in))
			assert.Equal(t, tt.message, fields[tt.field])
		})
	}
}

// Multiple invalid fields report one message each, first violation only.
func TestValidateCreateMultipleFields(t *testing.T) {
	in := learninglog.CreateInput{
		Title:      "",
		Reflection: "",
		Tags:       nil,
		TimeSpent:  2000,
	}

	fields := fieldErrorsOf(t, learninglog.ValidateCreate(&in))
	assert.Equal(t, "Title is required", fields["title"])
	assert.Equal(t, "Reflection is required", fields["reflection"])
	assert.Equal(t, "Add at least one tag", fields["tags"])
	assert.Equal(t, "Keep it under 24 hours", fields["timeSpent"])
}

// Any absolute URL passes, not just http(s); the constraint is shape, not
// scheme.
func TestValidateCreateNonHTTPSourceURL(t *testing.T) {
	in := validCreateInput()
	in.SourceURL = strPtr("ftp://mirror.example.com/notes.txt")

	require.NoError(t, learninglog.ValidateCreate(&in))
	assert.Equal(t, "ftp://mirror.example.com/notes.txt", *in.SourceURL)
}

func TestValidateCreateEmptySourceURLMeansNone(t *testing.T) {
	in := validCreateInput()
	in.SourceURL = strPtr("  ")

	require.NoError(t, learninglog.ValidateCreate(&in))
	assert.Nil(t, in.SourceURL)
}

func TestValidateUpdateRejectsEmptySubset(t *testing.T) {
	in := learninglog.UpdateInput{ID: "abc"}

	fields := fieldErrorsOf(t, learninglog.ValidateUpdate(&in))
	assert.Equal(t, "Provide at least one field to update", fields["title"])
}

func TestValidateUpdatePresentFields(t *testing.T) {
	tests := []struct {
		name    string
		input   learninglog.UpdateInput
		field   string
		message string
	}{
		{
			name:    "blank title present",
			input:   learninglog.UpdateInput{ID: "abc", Title: strPtr("  ")},
			field:   "title",
			message: "Title is required",
		},
		{
			name:    "tags present but empty",
			input:   learninglog.UpdateInput{ID: "abc", Tags: &[]string{}},
			field:   "tags",
			message: "Add at least one tag",
		},
		{
			name:    "time out of range",
			input:   learninglog.UpdateInput{ID: "abc", TimeSpent: intPtr(9999)},
			field:   "timeSpent",
			message: "Keep it under 24 hours",
		},
		{
			name: "bad url present",
			input: learninglog.UpdateInput{
				ID: "abc", SourceURL: strPtr("nope"), SourceURLSet: true,
			},
			field:   "sourceUrl",
			message: "Provide a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			fields := fieldErrorsOf(t, learninglog.ValidateUpdate(&in))
			assert.Equal(t, tt.message, fields[tt.field])
		})
	}
}

// Clearing the URL (key present, null value) is a valid single-field update.
func TestValidateUpdateClearSourceURL(t *testing.T) {
	in := learninglog.UpdateInput{ID: "abc", SourceURL: nil, SourceURLSet: true}

	require.NoError(t, learninglog.ValidateUpdate(&in))
	assert.Nil(t, in.SourceURL)
	assert.True(t, in.SourceURLSet)
}

func TestFormatISO(t *testing.T) {
	log := learninglog.Log{}
	assert.Equal(t, "0001-01-01T00:00:00.000Z", log.CreatedAtISO())
}
