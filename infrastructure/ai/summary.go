package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"learninglog-backend/domain/analytics"
	"learninglog-backend/domain/learninglog"
	"learninglog-backend/infrastructure/observability"
)

const (
	summaryTemperature = 0.7
	maxLogLines        = 40
)

// Service produces the weekly summary and habit plans. It wraps the chat
// client with deterministic fallbacks so the endpoints always answer.
type Service struct {
	client  *Client
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewService creates the insights service.
func NewService(client *Client, logger *zap.Logger, metrics *observability.Collector) *Service {
	return &Service{client: client, logger: logger, metrics: metrics}
}

// WeeklySummary summarizes a range of entries. An empty range has a fixed
// answer; a missing key or any collaborator failure yields the heuristic
// summary instead of an error.
func (s *Service) WeeklySummary(ctx context.Context, logs []learninglog.Log) string {
	if len(logs) == 0 {
		return "No learning activity recorded for this range."
	}
	if !s.client.Enabled() {
		s.metrics.AIFallbacks.WithLabelValues("no_api_key").Inc()
		return buildHeuristicSummary(logs)
	}

	text, err := s.client.Complete(ctx,
		"You are an encouraging learning coach who writes concise weekly summaries.",
		buildSummaryPrompt(logs),
		summaryTemperature,
	)
	if err != nil {
		s.logger.Warn("weekly summary fell back to heuristic", zap.Error(err))
		s.metrics.AIFallbacks.WithLabelValues(fallbackReason(err)).Inc()
		return buildHeuristicSummary(logs)
	}
	return strings.TrimSpace(text)
}

func buildSummaryPrompt(logs []learninglog.Log) string {
	totalMinutes := analytics.SumMinutes(logs)
	tags := analytics.MinutesByTag(logs)

	var topTagLines []string
	for i, tag := range tags {
		if i == 5 {
			break
		}
		topTagLines = append(topTagLines, fmt.Sprintf("- %s: %d minutes", tag.Tag, tag.Minutes))
	}
	tagBlock := strings.Join(topTagLines, "\n")
	if tagBlock == "" {
		tagBlock = "- none"
	}

	var lines []string
	for i, log := range logs {
		if i == maxLogLines {
			break
		}
		title := log.Title
		if title == "" {
			title = "(untitled)"
		}
		lines = append(lines, fmt.Sprintf(
			"Title: %s\nDate: %s\nMinutes: %d\nTags: %s\nReflection: %s",
			title, log.CreatedAtISO(), log.TimeSpent,
			strings.Join(log.Tags, ", "), log.Reflection,
		))
	}

	return fmt.Sprintf(`You are a concise learning coach. Summarize the user's week of learning into 150-200 words using markdown bullet sections. Highlight themes, note 3-5 takeaways, list top tags by time, and suggest two focused next steps. Keep an encouraging, pragmatic tone.

Context:
- Total entries: %d
- Total minutes: %d
- Top tags (minutes):
%s

Logs:
%s`, len(logs), totalMinutes, tagBlock, strings.Join(lines, "\n\n---\n\n"))
}

func buildHeuristicSummary(logs []learninglog.Log) string {
	totalMinutes := analytics.SumMinutes(logs)
	tags := analytics.MinutesByTag(logs)

	var tagLines []string
	for i, tag := range tags {
		if i == 3 {
			break
		}
		tagLines = append(tagLines, fmt.Sprintf("• %s: %d min", tag.Tag, tag.Minutes))
	}
	tagLine := strings.Join(tagLines, "\n")
	if tagLine == "" {
		tagLine = "• No dominant tags logged"
	}

	return strings.Join([]string{
		"**Weekly Snapshot**",
		fmt.Sprintf("• Captured %d learning sessions totalling %d minutes.", len(logs), totalMinutes),
		tagLine,
		"",
		"**Highlights & Takeaways**",
		"• Consistent progress across your top topics — reflect on what moved the needle most.",
		"• Capture a quick summary for each session so future you can revisit the insights.",
		"",
		"**Next Week Ideas**",
		"• Double down on the tag with the most minutes to deepen expertise.",
		"• Schedule one focused session on a lesser-used tag to keep breadth in your routine.",
	}, "\n")
}

// fallbackReason labels the metrics dimension for a failed completion.
func fallbackReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ErrCoolingDown):
		return "cooldown"
	case errors.Is(err, ErrNoAPIKey):
		return "no_api_key"
	default:
		return "error"
	}
}
