package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/momentum/internal/models"
)

func TestCreateGoalValidatesTarget(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)

	_, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 0, time.Now())
	require.Error(t, err)
}

func TestCreateGoalDeactivatesMatching(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)
	today := date(2026, time.March, 4) // a Wednesday

	first, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 10, today)
	require.NoError(t, err)
	second, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 15, today)
	require.NoError(t, err)

	// A different category on the same period is untouched.
	_, err = goals.CreateGoal(models.GoalWeekly, models.GoalPointsEarned, 100, today)
	require.NoError(t, err)

	active, err := goals.ActiveGoals()
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, g := range active {
		assert.NotEqual(t, first.ID, g.ID)
	}
	assert.Equal(t, second.ID, active[1].ID)
	assert.Equal(t, 15, active[1].TargetValue)
}

func TestCreateGoalFailureKeepsExistingGoalActive(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)
	today := date(2026, time.March, 4)

	existing, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 10, today)
	require.NoError(t, err)

	// Fail the replacement insert after the deactivation has run.
	_, err = db.Exec(`
		CREATE TRIGGER block_goal_insert BEFORE INSERT ON goals
		BEGIN SELECT RAISE(ABORT, 'goal insert blocked'); END`)
	require.NoError(t, err)

	_, err = goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 15, today)
	require.Error(t, err)

	// The old goal must survive the failed swap.
	active, err := goals.ActiveGoals()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, existing.ID, active[0].ID)
	assert.Equal(t, 10, active[0].TargetValue)
}

func TestWeeklyGoalPeriodBounds(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)

	// Wednesday 2026-03-04 sits in the Monday-to-Sunday week 03-02..03-08.
	goal, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 10, date(2026, time.March, 4))
	require.NoError(t, err)

	assert.Equal(t, date(2026, time.March, 2), models.DateOnly(goal.PeriodStart))
	assert.Equal(t, date(2026, time.March, 8), models.DateOnly(goal.PeriodEnd))
}

func TestUpdateProgressCountsPeriodCompletions(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	tasks := NewTaskService(db, scoring, achievements)
	goals := NewGoalService(db)
	today := models.DateOnly(time.Now())

	goal, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 10, today)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		task := createTask(t, tasks, models.SizeSmall)
		_, err := tasks.CompleteTask(task.ID, today)
		require.NoError(t, err)
	}

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)
	require.NoError(t, goals.UpdateProgress(progress, today))

	refreshed, err := goals.GetGoal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, refreshed.CurrentValue)
	assert.Equal(t, 30.0, refreshed.ProgressPercentage())
	assert.False(t, refreshed.IsCompleted())
}

func TestUpdateProgressApproximatesPoints(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	tasks := NewTaskService(db, scoring, achievements)
	goals := NewGoalService(db)
	today := models.DateOnly(time.Now())

	goal, err := goals.CreateGoal(models.GoalWeekly, models.GoalPointsEarned, 100, today)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		task := createTask(t, tasks, models.SizeSmall)
		_, err := tasks.CompleteTask(task.ID, today)
		require.NoError(t, err)
	}

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)
	require.NoError(t, goals.UpdateProgress(progress, today))

	// Point goals track completions at an assumed rate per task.
	refreshed, err := goals.GetGoal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 3*approxPointsPerTask, refreshed.CurrentValue)
}

func TestUpdateProgressStreakGoal(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)
	today := models.DateOnly(time.Now())

	goal, err := goals.CreateGoal(models.GoalWeekly, models.GoalStreakDays, 5, today)
	require.NoError(t, err)

	progress := &models.UserProgress{CurrentStreakDays: 4}
	require.NoError(t, goals.UpdateProgress(progress, today))

	refreshed, err := goals.GetGoal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, refreshed.CurrentValue)
}

func TestProductivityScore(t *testing.T) {
	assert.Equal(t, 0, productivityScore(nil))

	score := productivityScore(&models.UserProgress{
		TotalTasksCompleted: 10,
		CurrentStreakDays:   5,
		Level:               3,
	})
	assert.Equal(t, 50, score) // 20 + 15 + 15

	capped := productivityScore(&models.UserProgress{
		TotalTasksCompleted: 100,
		CurrentStreakDays:   20,
		Level:               10,
	})
	assert.Equal(t, 100, capped)
}

func TestSuggestGoalsWithoutHistory(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)

	suggestions, err := goals.SuggestGoals(&models.UserProgress{}, time.Now())
	require.NoError(t, err)

	// With no completions and no streak only the default points goal remains.
	require.Len(t, suggestions, 1)
	assert.Equal(t, models.GoalPointsEarned, suggestions[0].Category)
	assert.Equal(t, 55, suggestions[0].TargetValue) // 50 * 1.1
}

func TestSuggestGoalsFromHistory(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	tasks := NewTaskService(db, scoring, achievements)
	goals := NewGoalService(db)
	today := models.DateOnly(time.Now())

	for i := 0; i < 8; i++ {
		task := createTask(t, tasks, models.SizeSmall)
		_, err := tasks.CompleteTask(task.ID, today)
		require.NoError(t, err)
	}

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)

	suggestions, err := goals.SuggestGoals(progress, today)
	require.NoError(t, err)
	require.Len(t, suggestions, 3)

	// Weekly task target: 8 completions over 4 weeks averages 2, nudged to 3.
	assert.Equal(t, models.GoalWeekly, suggestions[0].Type)
	assert.Equal(t, models.GoalTasksCompleted, suggestions[0].Category)
	assert.Equal(t, 3, suggestions[0].TargetValue)

	// Monthly task target: average 2 per month, nudged to 7.
	assert.Equal(t, models.GoalMonthly, suggestions[1].Type)
	assert.Equal(t, 7, suggestions[1].TargetValue)

	// Streak target: current streak of 1 plus 3.
	assert.Equal(t, models.GoalStreakDays, suggestions[2].Category)
	assert.Equal(t, 4, suggestions[2].TargetValue)
}

func TestSuggestGoalsSkipsExistingCombinations(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	tasks := NewTaskService(db, scoring, achievements)
	goals := NewGoalService(db)
	today := models.DateOnly(time.Now())

	for i := 0; i < 8; i++ {
		task := createTask(t, tasks, models.SizeSmall)
		_, err := tasks.CompleteTask(task.ID, today)
		require.NoError(t, err)
	}

	_, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 10, today)
	require.NoError(t, err)

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)

	suggestions, err := goals.SuggestGoals(progress, today)
	require.NoError(t, err)
	for _, sg := range suggestions {
		if sg.Type == models.GoalWeekly {
			assert.NotEqual(t, models.GoalTasksCompleted, sg.Category)
		}
	}
}

func TestCleanupExpiredDeactivatesOnly(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)
	today := models.DateOnly(time.Now())

	// One goal whose period ended last week.
	_, err := db.Exec(`
		INSERT INTO goals (goal_type, category, target_value, current_value, period_start, period_end, is_active, created_at)
		VALUES (?, ?, 10, 4, ?, ?, TRUE, ?)`,
		models.GoalWeekly, models.GoalTasksCompleted,
		today.AddDate(0, 0, -13), today.AddDate(0, 0, -7), time.Now().UTC())
	require.NoError(t, err)

	_, err = goals.CreateGoal(models.GoalWeekly, models.GoalPointsEarned, 100, today)
	require.NoError(t, err)

	n, err := goals.CleanupExpired(today)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := goals.ActiveGoals()
	require.NoError(t, err)
	assert.Len(t, active, 1)

	// Expired goals survive as history.
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM goals`))
	assert.Equal(t, 2, count)
}

func TestGoalsSummary(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)
	today := models.DateOnly(time.Now())

	goal, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 10, today)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE goals SET current_value = 3 WHERE id = ?`, goal.ID)
	require.NoError(t, err)

	summary, err := goals.Summary(today)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalGoals)
	assert.Equal(t, 0, summary.CompletedGoals)
	assert.Equal(t, 1, summary.InProgressGoals)
	assert.Equal(t, 30.0, summary.AverageProgress)
	require.Len(t, summary.Goals, 1)
	assert.Equal(t, 3, summary.Goals[0].Current)
	assert.False(t, summary.Goals[0].Completed)
}

func TestGoalsSummaryEmpty(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)

	summary, err := goals.Summary(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalGoals)
	assert.Empty(t, summary.Goals)
}

func TestDeleteGoal(t *testing.T) {
	db := newTestDB(t)
	goals := NewGoalService(db)

	goal, err := goals.CreateGoal(models.GoalWeekly, models.GoalTasksCompleted, 10, time.Now())
	require.NoError(t, err)

	require.NoError(t, goals.DeleteGoal(goal.ID))
	_, err = goals.GetGoal(goal.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, goals.DeleteGoal(goal.ID), ErrNotFound)
}
