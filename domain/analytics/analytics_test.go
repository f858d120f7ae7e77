package analytics_test

import (
	"testing"
	"time"

	"learninglog-backend/domain/analytics"
	"learninglog-backend/domain/learninglog"

	"github.com/stretchr/testify/assert"
)

func logAt(day string, minutes int, tags ...string) learninglog.Log {
	ts, _ := time.Parse("2006-01-02", day)
	return learninglog.Log{CreatedAt: ts, TimeSpent: minutes, Tags: tags}
}

func TestSumMinutes(t *testing.T) {
	logs := []learninglog.Log{
		logAt("2026-08-01", 30, "go"),
		logAt("2026-08-02", 45, "sql"),
	}
	assert.Equal(t, 75, analytics.SumMinutes(logs))
	assert.Equal(t, 0, analytics.SumMinutes(nil))
}

func TestMinutesByTag(t *testing.T) {
	logs := []learninglog.Log{
		logAt("2026-08-01", 30, "go", "testing"),
		logAt("2026-08-02", 45, "go"),
		logAt("2026-08-03", 45, "sql"),
		logAt("2026-08-04", 10, "  ", ""),
	}

	got := analytics.MinutesByTag(logs)
	assert.Equal(t, []analytics.TagMinutes{
		{Tag: "go", Minutes: 75},
		{Tag: "sql", Minutes: 45},
		{Tag: "testing", Minutes: 30},
	}, got)
}

// Ties on minutes sort alphabetically by tag.
func TestMinutesByTagTieBreak(t *testing.T) {
	logs := []learninglog.Log{
		logAt("2026-08-01", 20, "zig"),
		logAt("2026-08-02", 20, "ada"),
	}

	got := analytics.MinutesByTag(logs)
	assert.Equal(t, "ada", got[0].Tag)
	assert.Equal(t, "zig", got[1].Tag)
}

func TestGroupDailyMinutes(t *testing.T) {
	logs := []learninglog.Log{
		logAt("2026-08-02", 20, "go"),
		logAt("2026-08-01", 30, "go"),
		logAt("2026-08-02", 25, "sql"),
	}

	got := analytics.GroupDailyMinutes(logs)
	assert.Equal(t, []analytics.DayMinutes{
		{Day: "2026-08-01", Minutes: 30},
		{Day: "2026-08-02", Minutes: 45},
	}, got)
}

func TestComputeStreaks(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2026-08-10")

	tests := []struct {
		name    string
		days    []string
		current int
		longest int
	}{
		{"empty", nil, 0, 0},
		{"single day today", []string{"2026-08-10"}, 1, 1},
		{"run ending yesterday", []string{"2026-08-07", "2026-08-08", "2026-08-09"}, 3, 3},
		{"stale run resets current", []string{"2026-08-01", "2026-08-02"}, 0, 2},
		{
			"longest in the middle",
			[]string{"2026-08-01", "2026-08-02", "2026-08-03", "2026-08-09", "2026-08-10"},
			2, 3,
		},
		{"duplicate days collapse", []string{"2026-08-10", "2026-08-10"}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analytics.ComputeStreaks(tt.days, now)
			assert.Equal(t, tt.current, got.Current, "current")
			assert.Equal(t, tt.longest, got.Longest, "longest")
		})
	}
}
