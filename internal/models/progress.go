package models

import (
	"time"
)

// UserProgress is the singleton gamification aggregate. It is created lazily
// on the first completion and only ever mutated through the scoring and
// achievement services.
type UserProgress struct {
	ID int `json:"id" db:"id"`

	TotalPoints       int `json:"total_points" db:"total_points"`
	Level             int `json:"level" db:"level"`
	PointsToNextLevel int `json:"points_to_next_level" db:"points_to_next_level"`

	TotalTasksCompleted int `json:"total_tasks_completed" db:"total_tasks_completed"`
	TotalTasksCreated   int `json:"total_tasks_created" db:"total_tasks_created"`

	CurrentStreakDays  int        `json:"current_streak_days" db:"current_streak_days"`
	LongestStreakDays  int        `json:"longest_streak_days" db:"longest_streak_days"`
	LastCompletionDate *time.Time `json:"last_completion_date,omitempty" db:"last_completion_date"`

	DailyGoal   int `json:"daily_goal" db:"daily_goal"`
	WeeklyGoal  int `json:"weekly_goal" db:"weekly_goal"`
	MonthlyGoal int `json:"monthly_goal" db:"monthly_goal"`

	AchievementsUnlocked int `json:"achievements_unlocked" db:"achievements_unlocked"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DailyActivity is the per-calendar-day rollup of completions and points.
type DailyActivity struct {
	ID           int       `json:"id" db:"id"`
	ActivityDate time.Time `json:"activity_date" db:"activity_date"`

	TasksCompleted int `json:"tasks_completed" db:"tasks_completed"`
	TasksCreated   int `json:"tasks_created" db:"tasks_created"`

	BasePointsEarned      int `json:"base_points_earned" db:"base_points_earned"`
	StreakBonusEarned     int `json:"streak_bonus_earned" db:"streak_bonus_earned"`
	DailyGoalBonusEarned  int `json:"daily_goal_bonus_earned" db:"daily_goal_bonus_earned"`
	TotalPointsEarned     int `json:"total_points_earned" db:"total_points_earned"`
	OverduePenaltyApplied int `json:"overdue_penalty_applied" db:"overdue_penalty_applied"`

	DailyGoalMet bool `json:"daily_goal_met" db:"daily_goal_met"`
	StreakActive bool `json:"streak_active" db:"streak_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ScoringResult is what a single completion earned.
type ScoringResult struct {
	BasePoints   int  `json:"base_points"`
	BonusPoints  int  `json:"bonus_points"`
	TotalPoints  int  `json:"total_points"`
	NewStreak    int  `json:"new_streak"`
	LevelUp      bool `json:"level_up"`
	NewLevel     int  `json:"new_level"`
	DailyGoalMet bool `json:"daily_goal_met"`
}

// ProgressSummary is the status-display snapshot.
type ProgressSummary struct {
	TotalPoints         int  `json:"total_points"`
	Level               int  `json:"level"`
	PointsToNextLevel   int  `json:"points_to_next_level"`
	CurrentStreak       int  `json:"current_streak"`
	LongestStreak       int  `json:"longest_streak"`
	TotalCompleted      int  `json:"total_completed"`
	DailyGoal           int  `json:"daily_goal"`
	TasksCompletedToday int  `json:"tasks_completed_today"`
	DailyGoalMet        bool `json:"daily_goal_met"`
	PointsEarnedToday   int  `json:"points_earned_today"`
}
