// internal/bot/outcome.go
package bot

import (
	"github.com/mibgheda/fitbud-bot/internal/models"
)

// OutcomeKind tags what the controller decided for one inbound event.
// Rendering (emojis, buttons, HTML) is entirely the presentation
// collaborator's concern.
type OutcomeKind string

const (
	// OutcomePrompt asks the user for the next input (guidance, a missing
	// duration, a consultation answer).
	OutcomePrompt OutcomeKind = "prompt"
	// OutcomeStaged means a candidate is staged and awaits confirm/edit.
	OutcomeStaged OutcomeKind = "staged"
	// OutcomeCommitted means a journal entry was persisted.
	OutcomeCommitted OutcomeKind = "committed"
	// OutcomeRejected covers validation violations and stale-session
	// confirms; nothing was persisted.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeError is a provider or storage failure; session state is
	// unchanged and the user may simply retry.
	OutcomeError OutcomeKind = "error"
	// OutcomeIgnored marks menu-button text and commands that belong to
	// other collaborators and must bypass the state machine.
	OutcomeIgnored OutcomeKind = "ignored"
)

// CandidateSummary describes a staged candidate for the confirmation
// prompt. Exactly one of Food/Workout is set.
type CandidateSummary struct {
	Token   string                   `json:"token"`
	Food    *models.FoodCandidate    `json:"food,omitempty"`
	Workout *models.WorkoutCandidate `json:"workout,omitempty"`
}

// CommitSummary reports a successful commit together with the running
// aggregates the user cares about.
type CommitSummary struct {
	EntryKind     string                   `json:"entry_kind"` // "food" | "workout"
	EntryID       int64                    `json:"entry_id"`
	Food          *models.FoodCandidate    `json:"food,omitempty"`
	Workout       *models.WorkoutCandidate `json:"workout,omitempty"`
	TodayCalories int                      `json:"today_calories,omitempty"`
	DailyTarget   int                      `json:"daily_target,omitempty"`
	Remaining     int                      `json:"remaining,omitempty"`
	WeekWorkouts  *models.WorkoutStats     `json:"week_workouts,omitempty"`
}

// Outcome is the single abstract result type handed to the presentation
// layer; nothing internal leaks past it.
type Outcome struct {
	Kind      OutcomeKind       `json:"kind"`
	Message   string            `json:"message,omitempty"`
	Candidate *CandidateSummary `json:"candidate,omitempty"`
	Committed *CommitSummary    `json:"committed,omitempty"`
}

func prompt(msg string) Outcome {
	return Outcome{Kind: OutcomePrompt, Message: msg}
}

func rejected(msg string) Outcome {
	return Outcome{Kind: OutcomeRejected, Message: msg}
}

func failure(err error) Outcome {
	return Outcome{Kind: OutcomeError, Message: err.Error()}
}

// StatsReport is the answer to an explicit stats request.
type StatsReport struct {
	TodayCalories int                 `json:"today_calories"`
	DailyTarget   int                 `json:"daily_target"`
	Remaining     int                 `json:"remaining"`
	WeekFood      models.FoodStats    `json:"week_food"`
	WeekWorkouts  models.WorkoutStats `json:"week_workouts"`
}
