package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"learninglog-backend/domain/analytics"
	"learninglog-backend/domain/learninglog"
)

const coachTemperature = 0.65

// HabitFocus selects which coaching angle the plan takes.
type HabitFocus string

const (
	FocusConsistency HabitFocus = "consistency"
	FocusBalance     HabitFocus = "balance"
	FocusMomentum    HabitFocus = "momentum"
)

// ParseHabitFocus maps a raw value to a focus, defaulting to consistency
// for anything unrecognized.
func ParseHabitFocus(value string) HabitFocus {
	switch HabitFocus(value) {
	case FocusConsistency, FocusBalance, FocusMomentum:
		return HabitFocus(value)
	default:
		return FocusConsistency
	}
}

// habitFocusConfig carries the per-focus prompt directive and the
// deterministic fallback plan content.
type habitFocusConfig struct {
	Value                  HabitFocus
	Label                  string
	Description            string
	PromptDirective        string
	FallbackHabits         []string
	FallbackAccountability string
}

var habitFocusConfigs = map[HabitFocus]habitFocusConfig{
	FocusConsistency: {
		Value:           FocusConsistency,
		Label:           "Improve consistency",
		Description:     "Establish a steady cadence and reduce skipped sessions.",
		PromptDirective: "Prioritize reliable routines, stacked triggers, and realistic minimum goals that keep momentum even on busy days.",
		FallbackHabits: []string{
			"Anchor a 20-minute study block to an existing routine (e.g., right after breakfast).",
			"Set a daily 'minimum viable session' of 10 minutes to keep the streak alive.",
			"Reserve one weekly review slot to scan reflections and plan the next focus tag.",
		},
		FallbackAccountability: "Share a weekly progress snapshot with a friend or mentor every Friday.",
	},
	FocusBalance: {
		Value:           FocusBalance,
		Label:           "Avoid burnout",
		Description:     "Keep learning sustainable and protect energy.",
		PromptDirective: "Focus on sustainable pacing, deliberate recovery, and variety so the learner stays energized without overloading.",
		FallbackHabits: []string{
			"Cap intense sessions at 45 minutes and follow with a 10-minute cool-down reflection.",
			"Pair deep-focus days with lighter 'maintenance' sessions on a different tag.",
			"Schedule one no-study evening per week to recharge and celebrate wins.",
		},
		FallbackAccountability: "Log energy levels beside each session and review the pattern every Sunday.",
	},
	FocusMomentum: {
		Value:           FocusMomentum,
		Label:           "Build momentum",
		Description:     "Accelerate progress and celebrate wins.",
		PromptDirective: "Emphasize compounding progress, visible milestones, and fast feedback loops that keep motivation high.",
		FallbackHabits: []string{
			"Kick off each session by previewing yesterday's reflection and choosing one quick win.",
			"Create a three-step roadmap for your top tag and tick one step every week.",
			"Close sessions with a 2-sentence highlight to reinforce progress.",
		},
		FallbackAccountability: "Track milestone completions in a visible progress bar and review it every Monday.",
	},
}

// HabitPlan is the coach endpoint's answer.
type HabitPlan struct {
	Focus   HabitFocus `json:"focus"`
	Plan    string     `json:"plan,omitempty"`
	Message string     `json:"message,omitempty"`
	RetryAt string     `json:"retryAt,omitempty"`
}

// HabitPlan builds a coaching plan for the given entries. Quota errors
// and cooldowns serve the deterministic fallback plan; other
// collaborator failures or missing credentials return an advisory
// message instead.
func (s *Service) HabitPlan(ctx context.Context, logs []learninglog.Log, focus HabitFocus) HabitPlan {
	if len(logs) == 0 {
		return HabitPlan{
			Focus:   focus,
			Message: "Add a few learning logs to unlock a personalized habit plan.",
		}
	}
	if !s.client.Enabled() {
		s.metrics.AIFallbacks.WithLabelValues("no_api_key").Inc()
		return HabitPlan{
			Focus:   focus,
			Message: "Habit coach unavailable (missing API key).",
		}
	}

	text, err := s.client.Complete(ctx,
		"You are an encouraging but pragmatic habit coach helping lifelong learners stay on track.",
		buildHabitPrompt(logs, focus),
		coachTemperature,
	)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrCoolingDown) {
			retryISO := s.retryISO()
			s.logger.Warn("habit plan served from fallback",
				zap.String("retryAt", retryISO), zap.Error(err))
			s.metrics.AIFallbacks.WithLabelValues(fallbackReason(err)).Inc()
			return HabitPlan{
				Focus:   focus,
				Plan:    buildFallbackPlan(logs, focus, retryISO),
				RetryAt: retryISO,
			}
		}
		s.logger.Error("habit plan request failed", zap.Error(err))
		s.metrics.AIFallbacks.WithLabelValues("error").Inc()
		return HabitPlan{
			Focus:   focus,
			Message: "Habit plan unavailable (AI error).",
		}
	}

	return HabitPlan{
		Focus: focus,
		Plan:  strings.TrimSpace(text),
	}
}

func (s *Service) retryISO() string {
	retryAt, ok := s.client.RetryAt()
	if !ok {
		return ""
	}
	return retryAt.UTC().Format(time.RFC3339)
}

func formatTopTags(logs []learninglog.Log) string {
	tags := analytics.MinutesByTag(logs)
	if len(tags) == 0 {
		return "None logged."
	}
	if len(tags) > 5 {
		tags = tags[:5]
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = fmt.Sprintf("%s: %d min", tag.Tag, tag.Minutes)
	}
	return strings.Join(parts, ", ")
}

func buildHabitPrompt(logs []learninglog.Log, focus HabitFocus) string {
	config := habitFocusConfigs[focus]

	var reflections []string
	for i, log := range logs {
		if i == maxLogLines {
			break
		}
		label := strings.TrimSpace(log.Title)
		if label == "" {
			label = fmt.Sprintf("Entry %d", i+1)
		}
		reflection := strings.TrimSpace(log.Reflection)
		if reflection == "" {
			reflection = "No reflection captured."
		}
		tags := strings.Join(log.Tags, ", ")
		if tags == "" {
			tags = "none"
		}
		reflections = append(reflections, fmt.Sprintf(
			"- %s (%d min, tags: %s): %s", label, log.TimeSpent, tags, reflection))
	}
	reflectionBlock := strings.Join(reflections, "\n")
	if reflectionBlock == "" {
		reflectionBlock = "- No reflections provided."
	}

	return strings.Join([]string{
		"You are an expert habit coach for dedicated learners.",
		fmt.Sprintf("Focus: %s. %s", config.Label, config.PromptDirective),
		"Use the learner's recent activity to create a concise custom plan.",
		"Plan requirements:",
		"1. Start with an empathetic, one-sentence observation about their current pattern.",
		"2. Provide exactly three numbered habit recommendations. Each should include the trigger, the action, and the benefit.",
		"3. Add a final **Accountability move** line with one concrete practice to keep them on track.",
		"4. Keep the tone direct, supportive, and motivating. Use markdown for clarity.",
		"",
		fmt.Sprintf("Entries analysed: %d", len(logs)),
		fmt.Sprintf("Total minutes: %d", analytics.SumMinutes(logs)),
		fmt.Sprintf("Top tags by minutes: %s", formatTopTags(logs)),
		"",
		"Recent reflections:",
		reflectionBlock,
	}, "\n")
}

func buildFallbackPlan(logs []learninglog.Log, focus HabitFocus, retryISO string) string {
	config := habitFocusConfigs[focus]
	totalMinutes := analytics.SumMinutes(logs)

	topTag := "your primary tag"
	if tags := analytics.MinutesByTag(logs); len(tags) > 0 {
		topTag = tags[0].Tag
	}

	header := "Here's a quick coach note to keep you moving."
	if retryISO != "" {
		header = fmt.Sprintf("Summary unavailable (quota exceeded - retry after %s). Here's a quick coach note.", retryISO)
	}

	habitLines := make([]string, len(config.FallbackHabits))
	for i, habit := range config.FallbackHabits {
		habitLines[i] = fmt.Sprintf("%d. %s", i+1, habit)
	}

	return strings.Join([]string{
		fmt.Sprintf("**Habit coach: %s**", config.Label),
		header,
		"",
		fmt.Sprintf("You logged %d sessions for %d minutes. Focus more time on **%s** to make progress visible.",
			len(logs), totalMinutes, topTag),
		"",
		"**Habits to try**",
		strings.Join(habitLines, "\n"),
		"",
		fmt.Sprintf("**Accountability move**\n- %s", config.FallbackAccountability),
	}, "\n")
}
