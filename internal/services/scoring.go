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

// Base point values by task size.
var basePoints = map[models.TaskSize]int{
	models.SizeSmall:  1,
	models.SizeMedium: 3,
	models.SizeLarge:  5,
}

// Streak bonus multipliers, highest threshold first.
var streakMultipliers = []struct {
	Days       int
	Multiplier float64
}{
	{100, 2.00},
	{60, 1.80},
	{30, 1.60},
	{14, 1.40},
	{7, 1.25},
	{3, 1.10},
}

// Bonus rate applied to the completion that first hits the daily goal.
const dailyGoalBonusRate = 0.5

// Categories that earn an extra point: important but rarely fun.
var bonusCategories = map[string]bool{
	"Work":    true,
	"Finance": true,
	"Health":  true,
}

// Cumulative points required for each level, up to level 31.
var levelThresholds = []int{
	0, 100, 250, 500, 1000, 1750, 2750, 4000, 5500, 7500,
	10000, 13000, 16500, 20500, 25000, 30000, 35500, 41500, 48000, 55000,
	62500, 70500, 79000, 88000, 97500, 107500, 118000, 129000, 140500, 152500,
	165000,
}

// CalculateLevel returns the level for a point total and the points still
// needed for the next level (0 at the maximum level). Pure and monotonic.
func CalculateLevel(totalPoints int) (level, pointsToNext int) {
	level = 1
	for i, threshold := range levelThresholds {
		if totalPoints >= threshold {
			level = i + 1
		} else {
			break
		}
	}

	if level < len(levelThresholds) {
		pointsToNext = levelThresholds[level] - totalPoints
	}
	return level, pointsToNext
}

// StreakMultiplier returns the bonus multiplier for a streak length.
func StreakMultiplier(streakDays int) float64 {
	for _, entry := range streakMultipliers {
		if streakDays >= entry.Days {
			return entry.Multiplier
		}
	}
	return 1.0
}

type ScoringService struct {
	db  *database.DB
	log *logger.Log
}

func NewScoringService(db *database.DB) *ScoringService {
	return &ScoringService{db: db, log: logger.New()}
}

// ApplyCompletion scores one completion and durably updates the progress
// aggregate and the day's activity rollup. It runs against any sqlx execer so
// the caller can supply a transaction covering the whole completion update.
func (s *ScoringService) ApplyCompletion(ext sqlx.Ext, task *models.Task, today time.Time) (*models.ScoringResult, error) {
	day := models.DateOnly(today)

	progress, err := s.loadOrInitProgress(ext)
	if err != nil {
		return nil, err
	}

	base := basePoints[models.ParseTaskSize(string(task.Size))]

	// Streak bonus from the streak as it stood before this completion.
	multiplier := StreakMultiplier(progress.CurrentStreakDays)
	streakBonus := int(float64(base) * (multiplier - 1.0))

	activity, err := s.activityForDate(ext, day)
	if err != nil {
		return nil, err
	}

	tasksToday := 0
	goalAlreadyMet := false
	if activity != nil {
		tasksToday = activity.TasksCompleted
		goalAlreadyMet = activity.DailyGoalMet
	}

	// Daily goal bonus applies only to the completion that crosses the line.
	dailyBonus := 0
	goalMetNow := tasksToday+1 >= progress.DailyGoal
	if goalMetNow && !goalAlreadyMet {
		dailyBonus = int(float64(base) * dailyGoalBonusRate)
	}

	categoryBonus := 0
	if bonusCategories[task.Category] {
		categoryBonus = 1
	}

	// Small recovery bonus for finally clearing an overdue task.
	overdueBonus := 0
	if task.DueDate != nil && models.DateOnly(*task.DueDate).Before(day) {
		overdueBonus = 1
	}

	bonus := streakBonus + dailyBonus + categoryBonus + overdueBonus
	total := base + bonus

	newStreak, err := nextStreak(progress, day)
	if err != nil {
		return nil, err
	}

	longest := progress.LongestStreakDays
	if newStreak > longest {
		longest = newStreak
	}

	newTotalPoints := progress.TotalPoints + total
	newLevel, pointsToNext := CalculateLevel(newTotalPoints)

	now := time.Now().UTC()
	_, err = ext.Exec(`
		UPDATE user_progress SET
			total_points = ?,
			level = ?,
			points_to_next_level = ?,
			total_tasks_completed = total_tasks_completed + 1,
			current_streak_days = ?,
			longest_streak_days = ?,
			last_completion_date = ?,
			updated_at = ?
		WHERE id = 1`,
		newTotalPoints, newLevel, pointsToNext, newStreak, longest, day, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update user progress: %w", err)
	}

	if err := s.recordCompletionActivity(ext, day, base, streakBonus, dailyBonus, total, goalMetNow); err != nil {
		return nil, err
	}

	return &models.ScoringResult{
		BasePoints:   base,
		BonusPoints:  bonus,
		TotalPoints:  total,
		NewStreak:    newStreak,
		LevelUp:      newLevel > progress.Level,
		NewLevel:     newLevel,
		DailyGoalMet: goalMetNow || goalAlreadyMet,
	}, nil
}

// nextStreak applies the continuity rules: first completion starts at 1,
// same-day completions keep the streak, the next calendar day extends it, any
// larger gap resets it. Backdated completions are rejected outright.
func nextStreak(progress *models.UserProgress, day time.Time) (int, error) {
	if progress.LastCompletionDate == nil {
		return 1, nil
	}

	gap := models.DaysBetween(*progress.LastCompletionDate, day)
	switch {
	case gap < 0:
		return 0, ErrBackdatedCompletion
	case gap == 0:
		return progress.CurrentStreakDays, nil
	case gap == 1:
		return progress.CurrentStreakDays + 1, nil
	default:
		return 1, nil
	}
}

// ApplyOverduePenalties deducts points for every overdue pending task, capped
// at 5 points per task, never driving the total below zero. Returns the total
// penalty applied.
func (s *ScoringService) ApplyOverduePenalties(today time.Time) (int, error) {
	day := models.DateOnly(today)

	var dueDates []time.Time
	err := s.db.Select(&dueDates, `
		SELECT due_date FROM tasks
		WHERE status = ? AND due_date IS NOT NULL AND due_date < ?`,
		models.StatusPending, day)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue tasks: %w", err)
	}

	totalPenalty := 0
	for _, due := range dueDates {
		penalty := models.DaysBetween(due, day)
		if penalty > 5 {
			penalty = 5
		}
		totalPenalty += penalty
	}

	if totalPenalty == 0 {
		return 0, nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	progress, err := s.loadOrInitProgress(tx)
	if err != nil {
		return 0, err
	}

	newTotal := progress.TotalPoints - totalPenalty
	if newTotal < 0 {
		newTotal = 0
	}
	newLevel, pointsToNext := CalculateLevel(newTotal)

	now := time.Now().UTC()
	if _, err := tx.Exec(`
		UPDATE user_progress SET total_points = ?, level = ?, points_to_next_level = ?, updated_at = ?
		WHERE id = 1`,
		newTotal, newLevel, pointsToNext, now); err != nil {
		return 0, fmt.Errorf("failed to apply penalty: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO daily_activity (activity_date, overdue_penalty_applied, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(activity_date) DO UPDATE SET
			overdue_penalty_applied = overdue_penalty_applied + excluded.overdue_penalty_applied,
			updated_at = excluded.updated_at`,
		day, totalPenalty, now, now); err != nil {
		return 0, fmt.Errorf("failed to record penalty: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit penalty: %w", err)
	}

	s.log.Info(fmt.Sprintf("applied %d penalty points for %d overdue tasks", totalPenalty, len(dueDates)))
	return totalPenalty, nil
}

// ProgressSummary returns the status-display snapshot for today.
func (s *ScoringService) ProgressSummary(today time.Time) (*models.ProgressSummary, error) {
	day := models.DateOnly(today)

	progress, err := s.loadOrInitProgress(s.db)
	if err != nil {
		return nil, err
	}

	activity, err := s.activityForDate(s.db, day)
	if err != nil {
		return nil, err
	}

	summary := &models.ProgressSummary{
		TotalPoints:       progress.TotalPoints,
		Level:             progress.Level,
		PointsToNextLevel: progress.PointsToNextLevel,
		CurrentStreak:     progress.CurrentStreakDays,
		LongestStreak:     progress.LongestStreakDays,
		TotalCompleted:    progress.TotalTasksCompleted,
		DailyGoal:         progress.DailyGoal,
	}
	if activity != nil {
		summary.TasksCompletedToday = activity.TasksCompleted
		summary.DailyGoalMet = activity.DailyGoalMet
		summary.PointsEarnedToday = activity.TotalPointsEarned
	}
	return summary, nil
}

// CurrentProgress loads the singleton aggregate, creating it with defaults on
// first use.
func (s *ScoringService) CurrentProgress() (*models.UserProgress, error) {
	return s.loadOrInitProgress(s.db)
}

// loadOrInitProgress lazily creates the singleton row, then reads it back.
// The table defaults carry the initial values (level 1, 100 to next, daily
// goal 3, weekly 20, monthly 80).
func (s *ScoringService) loadOrInitProgress(ext sqlx.Ext) (*models.UserProgress, error) {
	now := time.Now().UTC()
	if _, err := ext.Exec(`INSERT OR IGNORE INTO user_progress (id, created_at, updated_at) VALUES (1, ?, ?)`, now, now); err != nil {
		return nil, fmt.Errorf("failed to initialize user progress: %w", err)
	}

	var progress models.UserProgress
	if err := sqlx.Get(ext, &progress, `SELECT * FROM user_progress WHERE id = 1`); err != nil {
		return nil, fmt.Errorf("failed to load user progress: %w", err)
	}
	return &progress, nil
}

func (s *ScoringService) activityForDate(ext sqlx.Ext, day time.Time) (*models.DailyActivity, error) {
	var activity models.DailyActivity
	err := sqlx.Get(ext, &activity, `SELECT * FROM daily_activity WHERE activity_date = ?`, models.DateOnly(day))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load daily activity: %w", err)
	}
	return &activity, nil
}

// recordCompletionActivity accumulates one completion into the day's rollup,
// creating the row on the first completion of the day.
func (s *ScoringService) recordCompletionActivity(ext sqlx.Ext, day time.Time, base, streakBonus, dailyBonus, total int, goalMetNow bool) error {
	now := time.Now().UTC()
	_, err := ext.Exec(`
		INSERT INTO daily_activity (
			activity_date, tasks_completed, base_points_earned, streak_bonus_earned,
			daily_goal_bonus_earned, total_points_earned, daily_goal_met, streak_active,
			created_at, updated_at
		) VALUES (?, 1, ?, ?, ?, ?, ?, TRUE, ?, ?)
		ON CONFLICT(activity_date) DO UPDATE SET
			tasks_completed = tasks_completed + 1,
			base_points_earned = base_points_earned + excluded.base_points_earned,
			streak_bonus_earned = streak_bonus_earned + excluded.streak_bonus_earned,
			daily_goal_bonus_earned = daily_goal_bonus_earned + excluded.daily_goal_bonus_earned,
			total_points_earned = total_points_earned + excluded.total_points_earned,
			daily_goal_met = daily_goal_met OR excluded.daily_goal_met,
			streak_active = TRUE,
			updated_at = excluded.updated_at`,
		day, base, streakBonus, dailyBonus, total, goalMetNow, now, now)
	if err != nil {
		return fmt.Errorf("failed to record daily activity: %w", err)
	}
	return nil
}
