package learninglog

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "learninglog-backend/pkg/errors"
)

// Field constraints. The limits and messages are part of the wire
// contract: the web client maps them back onto form fields verbatim.
const (
	MaxTitleLength      = 120
	MaxReflectionLength = 4000
	MaxTags             = 12
	MaxTimeSpentMinutes = 1440
	MaxSourceURLLength  = 2048
)

// fieldMessages maps field -> failed validator tag -> user-facing message.
// Only the first violation per field is reported.
var fieldMessages = map[string]map[string]string{
	"title": {
		"required": "Title is required",
		"min":      "Title is required",
		"max":      "Keep it concise",
	},
	"reflection": {
		"required": "Reflection is required",
		"min":      "Reflection is required",
		"max":      "Reflection is too long",
	},
	"tags": {
		"min":      "Add at least one tag",
		"max":      "Limit to 12 tags",
		"required": "Tag cannot be empty",
	},
	"timeSpent": {
		"gte": "Time spent cannot be negative",
		"lte": "Keep it under 24 hours",
	},
	"sourceUrl": {
		"url": "Provide a valid URL",
		"max": "URL is too long",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field names by their json tag so validation errors line up
	// with the wire shape.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// messageFor resolves the user-facing message for a failed constraint.
func messageFor(field, tag string) string {
	if tags, ok := fieldMessages[field]; ok {
		if msg, ok := tags[tag]; ok {
			return msg
		}
	}
	return "Invalid value"
}

// normalizeField strips slice indexes so a failure on tags[3] is reported
// against the tags field.
func normalizeField(field string) string {
	if idx := strings.IndexByte(field, '['); idx > 0 {
		return field[:idx]
	}
	return field
}

// ValidateCreate trims and validates a create input in place. It returns
// a validation error carrying one message per invalid field.
func ValidateCreate(in *CreateInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Reflection = strings.TrimSpace(in.Reflection)
	in.Tags = trimTags(in.Tags)
	in.SourceURL = normalizeSourceURL(in.SourceURL)

	if err := validate.Struct(in); err != nil {
		return collectFieldErrors(err)
	}
	return nil
}

// ValidateUpdate trims and validates the fields present on an update
// input. An update naming no mutable field fails with a single message
// reported on title, the same way the web form does.
func ValidateUpdate(in *UpdateInput) error {
	if in.SourceURLSet {
		// An empty or null value means "clear the URL".
		in.SourceURL = normalizeSourceURL(in.SourceURL)
	}

	if in.Empty() {
		fields := apperrors.NewFieldErrors()
		fields.Add("title", "Provide at least one field to update")
		return fields.Err()
	}

	fields := apperrors.NewFieldErrors()

	if in.Title != nil {
		*in.Title = strings.TrimSpace(*in.Title)
		addVarErr(fields, "title", validate.Var(*in.Title, "required,max=120"))
	}
	if in.Reflection != nil {
		*in.Reflection = strings.TrimSpace(*in.Reflection)
		addVarErr(fields, "reflection", validate.Var(*in.Reflection, "required,max=4000"))
	}
	if in.Tags != nil {
		*in.Tags = trimTags(*in.Tags)
		addVarErr(fields, "tags", validate.Var(*in.Tags, "min=1,max=12,dive,required"))
	}
	if in.TimeSpent != nil {
		addVarErr(fields, "timeSpent", validate.Var(*in.TimeSpent, "gte=0,lte=1440"))
	}
	if in.SourceURL != nil {
		addVarErr(fields, "sourceUrl", validate.Var(*in.SourceURL, "url,max=2048"))
	}

	return fields.Err()
}

// collectFieldErrors converts validator struct errors into the per-field
// validation error shape, keeping the first violation per field.
func collectFieldErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewInternalError("validating input", err)
	}

	fields := apperrors.NewFieldErrors()
	for _, fe := range verrs {
		field := normalizeField(fe.Field())
		fields.Add(field, messageFor(field, fe.Tag()))
	}
	return fields.Err()
}

func addVarErr(fields *apperrors.FieldErrors, field string, err error) {
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields.Add(field, "Invalid value")
		return
	}
	for _, fe := range verrs {
		fields.Add(field, messageFor(field, fe.Tag()))
	}
}

// trimTags trims whitespace on each tag. Empty results are kept so the
// "Tag cannot be empty" constraint can fire; exact-string matching later
// in the filter layer relies on this trimming having happened here, at
// the mutation boundary.
func trimTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = strings.TrimSpace(tag)
	}
	return out
}

// normalizeSourceURL treats empty and whitespace-only values as "no URL".
func normalizeSourceURL(u *string) *string {
	if u == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*u)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
