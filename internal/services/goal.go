package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tahcohcat/momentum/internal/database"
	"github.com/tahcohcat/momentum/internal/logger"
	"github.com/tahcohcat/momentum/internal/models"
)

// Assumed points per completion when approximating period point totals. The
// goals table does not carry true per-period point accounting.
const approxPointsPerTask = 10

type GoalService struct {
	db  *database.DB
	log *logger.Log
}

func NewGoalService(db *database.DB) *GoalService {
	return &GoalService{db: db, log: logger.New()}
}

// CreateGoal inserts a new active goal for the period containing today. Any
// active goal with the same type and category is deactivated first, so at
// most one stays active per (type, category) pair.
func (s *GoalService) CreateGoal(goalType models.GoalType, category models.GoalCategory, target int, today time.Time) (*models.Goal, error) {
	if target < 1 {
		return nil, fmt.Errorf("target value must be at least 1")
	}

	// Deactivation and insert commit together; a fault can never retire the
	// old goal without putting the new one in place.
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.deactivateMatching(tx, goalType, category); err != nil {
		return nil, err
	}

	start, end := models.PeriodBounds(goalType, today)
	goal := &models.Goal{
		Type:         goalType,
		Category:     category,
		TargetValue:  target,
		CurrentValue: 0,
		PeriodStart:  start,
		PeriodEnd:    end,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	result, err := tx.Exec(`
		INSERT INTO goals (goal_type, category, target_value, current_value, period_start, period_end, is_active, created_at)
		VALUES (?, ?, ?, 0, ?, ?, TRUE, ?)`,
		goal.Type, goal.Category, goal.TargetValue, goal.PeriodStart, goal.PeriodEnd, goal.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get goal ID: %w", err)
	}
	goal.ID = int(id)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit goal creation: %w", err)
	}

	return goal, nil
}

func (s *GoalService) deactivateMatching(ext sqlx.Ext, goalType models.GoalType, category models.GoalCategory) error {
	_, err := ext.Exec(`
		UPDATE goals SET is_active = FALSE
		WHERE goal_type = ? AND category = ? AND is_active = TRUE`,
		goalType, category)
	if err != nil {
		return fmt.Errorf("failed to deactivate existing goals: %w", err)
	}
	return nil
}

// ActiveGoals returns all active goals, newest first.
func (s *GoalService) ActiveGoals() ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.Select(&goals, `
		SELECT * FROM goals WHERE is_active = TRUE ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active goals: %w", err)
	}
	return goals, nil
}

// CurrentGoals returns the active goals whose period contains today.
func (s *GoalService) CurrentGoals(today time.Time) ([]models.Goal, error) {
	goals, err := s.ActiveGoals()
	if err != nil {
		return nil, err
	}

	current := goals[:0]
	for _, g := range goals {
		if g.IsCurrentPeriod(today) {
			current = append(current, g)
		}
	}
	return current, nil
}

// UpdateProgress recomputes the current value of every goal in the current
// period. Goals are refreshed opportunistically, not as part of the scoring
// transaction.
func (s *GoalService) UpdateProgress(progress *models.UserProgress, today time.Time) error {
	goals, err := s.CurrentGoals(today)
	if err != nil {
		return err
	}

	for _, goal := range goals {
		value, err := s.goalValue(&goal, progress)
		if err != nil {
			return err
		}
		if value == goal.CurrentValue {
			continue
		}
		if _, err := s.db.Exec(`UPDATE goals SET current_value = ? WHERE id = ?`, value, goal.ID); err != nil {
			return fmt.Errorf("failed to update goal progress: %w", err)
		}
	}
	return nil
}

func (s *GoalService) goalValue(goal *models.Goal, progress *models.UserProgress) (int, error) {
	switch goal.Category {
	case models.GoalTasksCompleted:
		return s.periodCompletions(goal.PeriodStart, goal.PeriodEnd)
	case models.GoalPointsEarned:
		// Approximation, not true earned-point accounting.
		completions, err := s.periodCompletions(goal.PeriodStart, goal.PeriodEnd)
		if err != nil {
			return 0, err
		}
		return completions * approxPointsPerTask, nil
	case models.GoalStreakDays:
		if progress == nil {
			return 0, nil
		}
		return progress.CurrentStreakDays, nil
	case models.GoalProductivityScore:
		return productivityScore(progress), nil
	default:
		return 0, nil
	}
}

// periodCompletions counts completed tasks inside [start, end] (whole days).
func (s *GoalService) periodCompletions(start, end time.Time) (int, error) {
	var count int
	err := s.db.Get(&count, `
		SELECT COUNT(*) FROM tasks
		WHERE status = ? AND completed_at >= ? AND completed_at < ?`,
		models.StatusCompleted, models.DateOnly(start), models.DateOnly(end).AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to count period completions: %w", err)
	}
	return count, nil
}

// productivityScore is a 0-100 composite of completions, streak and level.
func productivityScore(progress *models.UserProgress) int {
	if progress == nil {
		return 0
	}

	score := 0
	if c := progress.TotalTasksCompleted * 2; c < 40 {
		score += c
	} else {
		score += 40
	}
	if st := progress.CurrentStreakDays * 3; st < 30 {
		score += st
	} else {
		score += 30
	}
	if lv := progress.Level * 5; lv < 30 {
		score += lv
	} else {
		score += 30
	}

	if score > 100 {
		score = 100
	}
	return score
}

// SuggestGoals proposes up to three goals from trailing completion averages,
// skipping combinations that already have an active goal.
func (s *GoalService) SuggestGoals(progress *models.UserProgress, today time.Time) ([]models.GoalSuggestion, error) {
	day := models.DateOnly(today)

	avgWeekly, err := s.averageCompletions(day.AddDate(0, 0, -28), 4)
	if err != nil {
		return nil, err
	}
	avgMonthly, err := s.averageCompletions(day.AddDate(0, 0, -90), 3)
	if err != nil {
		return nil, err
	}

	currentStreak := 0
	if progress != nil {
		currentStreak = progress.CurrentStreakDays
	}

	var suggestions []models.GoalSuggestion

	if avgWeekly > 0 {
		target := int(float64(avgWeekly) * 1.15)
		if target < avgWeekly+1 {
			target = avgWeekly + 1
		}
		suggestions = append(suggestions, models.GoalSuggestion{
			Type:        models.GoalWeekly,
			Category:    models.GoalTasksCompleted,
			TargetValue: target,
			Reason:      fmt.Sprintf("Based on your average of %d tasks per week", avgWeekly),
			Difficulty:  "moderate",
		})
	}

	if avgMonthly > 0 {
		target := int(float64(avgMonthly) * 1.2)
		if target < avgMonthly+5 {
			target = avgMonthly + 5
		}
		suggestions = append(suggestions, models.GoalSuggestion{
			Type:        models.GoalMonthly,
			Category:    models.GoalTasksCompleted,
			TargetValue: target,
			Reason:      fmt.Sprintf("Based on your average of %d tasks per month", avgMonthly),
			Difficulty:  "moderate",
		})
	}

	if currentStreak > 0 {
		target := currentStreak + 3
		if target > 7 {
			target = 7 // weekly period caps the streak target
		}
		suggestions = append(suggestions, models.GoalSuggestion{
			Type:        models.GoalWeekly,
			Category:    models.GoalStreakDays,
			TargetValue: target,
			Reason:      fmt.Sprintf("Extend your current %d-day streak", currentStreak),
			Difficulty:  "achievable",
		})
	}

	avgPointsWeekly := 50
	if avgWeekly > 0 {
		avgPointsWeekly = avgWeekly * approxPointsPerTask
	}
	suggestions = append(suggestions, models.GoalSuggestion{
		Type:        models.GoalWeekly,
		Category:    models.GoalPointsEarned,
		TargetValue: int(float64(avgPointsWeekly) * 1.1),
		Reason:      "Steady points accumulation",
		Difficulty:  "easy",
	})

	current, err := s.CurrentGoals(today)
	if err != nil {
		return nil, err
	}
	existing := make(map[models.GoalType]map[models.GoalCategory]bool)
	for _, g := range current {
		if existing[g.Type] == nil {
			existing[g.Type] = make(map[models.GoalCategory]bool)
		}
		existing[g.Type][g.Category] = true
	}

	filtered := suggestions[:0]
	for _, sg := range suggestions {
		if existing[sg.Type][sg.Category] {
			continue
		}
		filtered = append(filtered, sg)
		if len(filtered) == 3 {
			break
		}
	}

	return filtered, nil
}

// averageCompletions counts completions since a cutoff and divides them over
// the given number of periods.
func (s *GoalService) averageCompletions(since time.Time, periods int) (int, error) {
	var count int
	err := s.db.Get(&count, `
		SELECT COUNT(*) FROM tasks WHERE status = ? AND completed_at >= ?`,
		models.StatusCompleted, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count / periods, nil
}

// Summary reports every current-period goal with its progress.
func (s *GoalService) Summary(today time.Time) (*models.GoalsSummary, error) {
	goals, err := s.CurrentGoals(today)
	if err != nil {
		return nil, err
	}

	summary := &models.GoalsSummary{Goals: []models.GoalStatus{}}
	if len(goals) == 0 {
		return summary, nil
	}

	totalProgress := 0.0
	for _, g := range goals {
		if g.IsCompleted() {
			summary.CompletedGoals++
		}
		totalProgress += g.ProgressPercentage()

		summary.Goals = append(summary.Goals, models.GoalStatus{
			ID:            g.ID,
			Type:          g.Type,
			Category:      g.Category,
			Target:        g.TargetValue,
			Current:       g.CurrentValue,
			Progress:      g.ProgressPercentage(),
			Completed:     g.IsCompleted(),
			DaysRemaining: g.DaysRemaining(today),
			PeriodStart:   models.DateOnly(g.PeriodStart).Format("2006-01-02"),
			PeriodEnd:     models.DateOnly(g.PeriodEnd).Format("2006-01-02"),
		})
	}

	summary.TotalGoals = len(goals)
	summary.InProgressGoals = summary.TotalGoals - summary.CompletedGoals
	summary.CompletionRate = float64(summary.CompletedGoals) / float64(summary.TotalGoals) * 100
	summary.AverageProgress = totalProgress / float64(summary.TotalGoals)

	return summary, nil
}

// CleanupExpired deactivates goals whose period has ended. Expired goals are
// kept for history, never deleted. Returns how many were deactivated.
func (s *GoalService) CleanupExpired(today time.Time) (int, error) {
	result, err := s.db.Exec(`
		UPDATE goals SET is_active = FALSE
		WHERE period_end < ? AND is_active = TRUE`,
		models.DateOnly(today))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired goals: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if n > 0 {
		s.log.Debug(fmt.Sprintf("deactivated %d expired goals", n))
	}
	return int(n), nil
}

// GetGoal fetches one goal by ID.
func (s *GoalService) GetGoal(id int) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.Get(&goal, `SELECT * FROM goals WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &goal, nil
}

// DeleteGoal removes a goal entirely.
func (s *GoalService) DeleteGoal(id int) error {
	result, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
