// Package learninglog defines the learning-log entry entity, its mutation
// inputs and the field constraints enforced at the mutation boundary.
package learninglog

import (
	"time"
)

// Log is the sole persisted entity: one learning session captured by the
// user. ID and CreatedAt are assigned by the server at creation and never
// change afterwards; deletion is permanent.
type Log struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Reflection string    `json:"reflection"`
	Tags       []string  `json:"tags"`
	TimeSpent  int       `json:"timeSpent"`
	SourceURL  *string   `json:"sourceUrl"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreatedAtISO renders the creation timestamp the way the web client
// expects it: UTC with millisecond precision and a trailing Z, matching
// JavaScript's Date.toISOString().
func (l *Log) CreatedAtISO() string {
	return FormatISO(l.CreatedAt)
}

// FormatISO formats a timestamp as an ISO-8601 UTC string with
// millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// CreateInput carries the full set of fields for a new entry.
type CreateInput struct {
	Title      string   `json:"title" validate:"required,max=120"`
	Reflection string   `json:"reflection" validate:"required,max=4000"`
	Tags       []string `json:"tags" validate:"min=1,max=12,dive,required"`
	TimeSpent  int      `json:"timeSpent" validate:"gte=0,lte=1440"`
	SourceURL  *string  `json:"sourceUrl" validate:"omitnil,url,max=2048"`
}

// UpdateInput carries the entry's global id plus a subset of mutable
// fields. A nil pointer means the field was omitted; SourceURLSet
// distinguishes "sourceUrl omitted" from "sourceUrl explicitly cleared"
// (key present with a null value).
type UpdateInput struct {
	ID           string    `json:"id"`
	Title        *string   `json:"title"`
	Reflection   *string   `json:"reflection"`
	Tags         *[]string `json:"tags"`
	TimeSpent    *int      `json:"timeSpent"`
	SourceURL    *string   `json:"sourceUrl"`
	SourceURLSet bool      `json:"-"`
}

// Empty reports whether the update names no mutable field at all.
func (in *UpdateInput) Empty() bool {
	return in.Title == nil &&
		in.Reflection == nil &&
		in.Tags == nil &&
		in.TimeSpent == nil &&
		!in.SourceURLSet
}
