package models

import (
	"time"
)

type GoalType string

const (
	GoalWeekly  GoalType = "weekly"
	GoalMonthly GoalType = "monthly"
)

type GoalCategory string

const (
	GoalTasksCompleted    GoalCategory = "tasks_completed"
	GoalPointsEarned      GoalCategory = "points_earned"
	GoalStreakDays        GoalCategory = "streak_days"
	GoalProductivityScore GoalCategory = "productivity_score"
	GoalCategoryFocus     GoalCategory = "category_focus"
)

// GoalTypes and GoalCategories list the valid values, used for validation and
// fuzzy input matching at the API boundary.
var (
	GoalTypes      = []GoalType{GoalWeekly, GoalMonthly}
	GoalCategories = []GoalCategory{
		GoalTasksCompleted,
		GoalPointsEarned,
		GoalStreakDays,
		GoalProductivityScore,
		GoalCategoryFocus,
	}
)

type Goal struct {
	ID           int          `json:"id" db:"id"`
	Type         GoalType     `json:"type" db:"goal_type"`
	Category     GoalCategory `json:"category" db:"category"`
	TargetValue  int          `json:"target_value" db:"target_value"`
	CurrentValue int          `json:"current_value" db:"current_value"`
	PeriodStart  time.Time    `json:"period_start" db:"period_start"`
	PeriodEnd    time.Time    `json:"period_end" db:"period_end"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// PeriodBounds derives the goal period containing today: Monday through
// Sunday for weekly goals, first through last day of the month for monthly.
func PeriodBounds(goalType GoalType, today time.Time) (start, end time.Time) {
	day := DateOnly(today)
	if goalType == GoalWeekly {
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		start = day.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 6)
		return start, end
	}
	start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

func (g *Goal) ProgressPercentage() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	pct := float64(g.CurrentValue) / float64(g.TargetValue) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (g *Goal) IsCompleted() bool {
	return g.CurrentValue >= g.TargetValue
}

func (g *Goal) IsCurrentPeriod(today time.Time) bool {
	day := DateOnly(today)
	return !day.Before(DateOnly(g.PeriodStart)) && !day.After(DateOnly(g.PeriodEnd))
}

func (g *Goal) DaysRemaining(today time.Time) int {
	day := DateOnly(today)
	if day.After(DateOnly(g.PeriodEnd)) {
		return 0
	}
	return DaysBetween(day, g.PeriodEnd) + 1
}

type GoalSuggestion struct {
	Type        GoalType     `json:"type"`
	Category    GoalCategory `json:"category"`
	TargetValue int          `json:"target_value"`
	Reason      string       `json:"reason"`
	Difficulty  string       `json:"difficulty"`
}

type GoalStatus struct {
	ID            int          `json:"id"`
	Type          GoalType     `json:"type"`
	Category      GoalCategory `json:"category"`
	Target        int          `json:"target"`
	Current       int          `json:"current"`
	Progress      float64      `json:"progress"`
	Completed     bool         `json:"completed"`
	DaysRemaining int          `json:"days_remaining"`
	PeriodStart   string       `json:"period_start"`
	PeriodEnd     string       `json:"period_end"`
}

type GoalsSummary struct {
	TotalGoals      int          `json:"total_goals"`
	CompletedGoals  int          `json:"completed_goals"`
	InProgressGoals int          `json:"in_progress_goals"`
	CompletionRate  float64      `json:"completion_rate"`
	AverageProgress float64      `json:"average_progress"`
	Goals           []GoalStatus `json:"goals"`
}

type CreateGoalRequest struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	TargetValue int    `json:"target_value"`
}
