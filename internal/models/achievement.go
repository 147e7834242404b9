package models

import (
	"time"
)

// Requirement types understood by the achievement engine. The special_*
// values are reserved; they never unlock today.
const (
	RequirementTasksCompleted  = "tasks_completed"
	RequirementStreakDays      = "streak_days"
	RequirementPointsEarned    = "points_earned"
	RequirementDailyGoalsMet   = "daily_goals_met"
	RequirementLevelReached    = "level_reached"
	RequirementLateCompletion  = "special_late_completion"
	RequirementEarlyCompletion = "special_early_completion"
	RequirementWeekendTasks    = "special_weekend_completions"
)

// AchievementDefinition is a static catalog entry. Definitions are seeded once
// at startup; only the unlock state on Achievement ever changes.
type AchievementDefinition struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Icon             string `json:"icon"`
	RequirementType  string `json:"requirement_type"`
	RequirementValue int    `json:"requirement_value"`
	BonusPoints      int    `json:"bonus_points"`
}

type Achievement struct {
	ID               int        `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Description      string     `json:"description" db:"description"`
	Icon             string     `json:"icon" db:"icon"`
	RequirementType  string     `json:"requirement_type" db:"requirement_type"`
	RequirementValue int        `json:"requirement_value" db:"requirement_value"`
	BonusPoints      int        `json:"bonus_points" db:"bonus_points"`
	IsUnlocked       bool       `json:"is_unlocked" db:"is_unlocked"`
	UnlockedAt       *time.Time `json:"unlocked_at,omitempty" db:"unlocked_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// AchievementProgress describes how far along a single achievement is.
type AchievementProgress struct {
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Current     int     `json:"current"`
	Required    int     `json:"required"`
	Percentage  float64 `json:"percentage"`
	BonusPoints int     `json:"bonus_points"`
	Unlocked    bool    `json:"unlocked"`
}

type NextMilestone struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Current     int     `json:"current"`
	Required    int     `json:"required"`
	Percentage  float64 `json:"percentage"`
}

type AchievementsSummary struct {
	TotalUnlocked        int            `json:"total_unlocked"`
	TotalPossible        int            `json:"total_possible"`
	CompletionPercentage float64        `json:"completion_percentage"`
	RecentUnlocks        int            `json:"recent_unlocks"`
	NextMilestone        *NextMilestone `json:"next_milestone,omitempty"`
}
