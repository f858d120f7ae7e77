// Package analytics computes aggregate views over learning-log entries.
// The results feed the analytics page, the AI prompts and the
// deterministic fallback texts.
package analytics

import (
	"sort"
	"strings"
	"time"

	"learninglog-backend/domain/learninglog"
)

// TagMinutes pairs a tag with the total minutes logged against it.
type TagMinutes struct {
	Tag     string `json:"tag"`
	Minutes int    `json:"minutes"`
}

// DayMinutes pairs a UTC calendar day (YYYY-MM-DD) with its total minutes.
type DayMinutes struct {
	Day     string `json:"day"`
	Minutes int    `json:"minutes"`
}

// Streaks holds the current and longest consecutive-day runs.
type Streaks struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// NormalizeDay truncates a timestamp to its UTC calendar day.
func NormalizeDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SumMinutes totals the minutes across all entries.
func SumMinutes(logs []learninglog.Log) int {
	total := 0
	for _, log := range logs {
		total += log.TimeSpent
	}
	return total
}

// MinutesByTag totals minutes per tag, sorted by minutes descending with
// ties broken alphabetically.
func MinutesByTag(logs []learninglog.Log) []TagMinutes {
	totals := make(map[string]int)

	for _, log := range logs {
		for _, tag := range log.Tags {
			normalized := strings.TrimSpace(tag)
			if normalized == "" {
				continue
			}
			totals[normalized] += log.TimeSpent
		}
	}

	out := make([]TagMinutes, 0, len(totals))
	for tag, minutes := range totals {
		out = append(out, TagMinutes{Tag: tag, Minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// GroupDailyMinutes totals minutes per UTC day, sorted chronologically.
func GroupDailyMinutes(logs []learninglog.Log) []DayMinutes {
	totals := make(map[string]int)

	for _, log := range logs {
		totals[NormalizeDay(log.CreatedAt)] += log.TimeSpent
	}

	out := make([]DayMinutes, 0, len(totals))
	for day, minutes := range totals {
		out = append(out, DayMinutes{Day: day, Minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// ComputeStreaks derives the current and longest consecutive-day runs
// from a set of activity days. The current streak drops to zero when the
// most recent activity is older than yesterday, relative to now.
func ComputeStreaks(days []string, now time.Time) Streaks {
	if len(days) == 0 {
		return Streaks{}
	}

	unique := make(map[string]struct{}, len(days))
	for _, d := range days {
		unique[d] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for d := range unique {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	current := 1
	longest := 1
	for i := 1; i < len(sorted); i++ {
		prev, errPrev := time.Parse("2006-01-02", sorted[i-1])
		cur, errCur := time.Parse("2006-01-02", sorted[i])
		if errPrev != nil || errCur != nil {
			continue
		}
		if cur.Sub(prev) == 24*time.Hour {
			current++
		} else {
			if current > longest {
				longest = current
			}
			current = 1
		}
	}
	if current > longest {
		longest = current
	}

	today := NormalizeDay(now)
	yesterday := NormalizeDay(now.Add(-24 * time.Hour))
	last := sorted[len(sorted)-1]
	if last != today && last != yesterday {
		current = 0
	}

	return Streaks{Current: current, Longest: longest}
}
