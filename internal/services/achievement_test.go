package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/momentum/internal/models"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	achievements := NewAchievementService(db)

	require.NoError(t, achievements.Seed())
	all, err := achievements.All()
	require.NoError(t, err)
	count := len(all)
	require.Greater(t, count, 0)

	// Re-seeding must not duplicate or reset anything.
	require.NoError(t, achievements.Seed())
	all, err = achievements.All()
	require.NoError(t, err)
	assert.Len(t, all, count)
}

func TestCheckAndUnlockAwardsBonusExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	now := time.Now().UTC()

	// Singleton row with a known point total.
	_, err := scoring.CurrentProgress()
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE user_progress SET total_points = 42, total_tasks_completed = 1 WHERE id = 1`)
	require.NoError(t, err)

	// One custom achievement worth exactly 10 bonus points.
	_, err = db.Exec(`
		INSERT INTO achievements (name, description, icon, requirement_type, requirement_value, bonus_points, created_at)
		VALUES ('Starter', 'Complete one task', '🎯', ?, 1, 10, ?)`,
		models.RequirementTasksCompleted, now)
	require.NoError(t, err)

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)

	unlocked, err := achievements.CheckAndUnlock(db, progress, now)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "Starter", unlocked[0].Name)
	assert.True(t, unlocked[0].IsUnlocked)
	require.NotNil(t, unlocked[0].UnlockedAt)

	after, err := scoring.CurrentProgress()
	require.NoError(t, err)
	assert.Equal(t, 52, after.TotalPoints) // exactly +10
	assert.Equal(t, 1, after.AchievementsUnlocked)

	// Second run with unchanged progress unlocks nothing and awards nothing.
	unlocked, err = achievements.CheckAndUnlock(db, after, now)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	final, err := scoring.CurrentProgress()
	require.NoError(t, err)
	assert.Equal(t, 52, final.TotalPoints)
	assert.Equal(t, 1, final.AchievementsUnlocked)
}

func TestCheckAndUnlockNilProgressIsNoop(t *testing.T) {
	db := newTestDB(t)
	achievements := NewAchievementService(db)

	unlocked, err := achievements.CheckAndUnlock(db, nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestRequirementTypes(t *testing.T) {
	progress := &models.UserProgress{
		TotalPoints:         1200,
		Level:               6,
		TotalTasksCompleted: 55,
		CurrentStreakDays:   8,
	}

	assert.Equal(t, 55, currentValue(models.RequirementTasksCompleted, progress, -1))
	assert.Equal(t, 8, currentValue(models.RequirementStreakDays, progress, -1))
	assert.Equal(t, 1200, currentValue(models.RequirementPointsEarned, progress, -1))
	assert.Equal(t, 6, currentValue(models.RequirementLevelReached, progress, -1))
	assert.Equal(t, 4, currentValue(models.RequirementDailyGoalsMet, progress, 4))

	// Reserved special requirements never report progress.
	assert.Equal(t, 0, currentValue(models.RequirementLateCompletion, progress, -1))
	assert.Equal(t, 0, currentValue(models.RequirementEarlyCompletion, progress, -1))
	assert.Equal(t, 0, currentValue(models.RequirementWeekendTasks, progress, -1))
}

func TestDailyGoalsMetRequirement(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	now := time.Now().UTC()

	_, err := db.Exec(`
		INSERT INTO achievements (name, description, icon, requirement_type, requirement_value, bonus_points, created_at)
		VALUES ('Goal Getter', 'Hit your daily goal once', '🎯', ?, 1, 20, ?)`,
		models.RequirementDailyGoalsMet, now)
	require.NoError(t, err)

	// Hit the daily goal (3 completions) on one day.
	today := models.DateOnly(now)
	for i := 0; i < 3; i++ {
		_, err := scoring.ApplyCompletion(db, &models.Task{Size: models.SizeSmall}, today)
		require.NoError(t, err)
	}

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)

	unlocked, err := achievements.CheckAndUnlock(db, progress, now)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "Goal Getter", unlocked[0].Name)
}

func TestProgressLookbackFollowsSuppliedDate(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	now := time.Now().UTC()

	_, err := db.Exec(`
		INSERT INTO achievements (name, description, icon, requirement_type, requirement_value, bonus_points, created_at)
		VALUES ('Goal Getter', 'Hit your daily goal once', '🎯', ?, 1, 20, ?)`,
		models.RequirementDailyGoalsMet, now)
	require.NoError(t, err)

	// One goal-met day on record.
	day := date(2026, time.March, 2)
	_, err = db.Exec(`
		INSERT INTO daily_activity (activity_date, daily_goal_met, created_at, updated_at)
		VALUES (?, TRUE, ?, ?)`, day, now, now)
	require.NoError(t, err)

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)

	// Inside the 365-day lookback from the supplied date.
	within, err := achievements.Progress(progress, day.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 1, within["Goal Getter"].Current)

	// The same record falls out of the window a year later.
	beyond, err := achievements.Progress(progress, day.AddDate(0, 0, 400))
	require.NoError(t, err)
	assert.Equal(t, 0, beyond["Goal Getter"].Current)
}

func TestUnlockThroughScoringFlow(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	tasks := NewTaskService(db, scoring, achievements)
	require.NoError(t, achievements.Seed())

	task := createTask(t, tasks, models.SizeSmall)
	result, err := tasks.CompleteTask(task.ID, time.Now().UTC())
	require.NoError(t, err)

	// First completion satisfies "First Steps" (1 task) and "Day One"
	// (1-day streak) from the catalog.
	names := make(map[string]bool)
	for _, a := range result.UnlockedAchievements {
		names[a.Name] = true
	}
	assert.True(t, names["First Steps"])
	assert.True(t, names["Day One"])

	// Bonus points land on the aggregate, and the level stays consistent
	// with the new total.
	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)
	assert.Equal(t, result.Scoring.TotalPoints+15, progress.TotalPoints) // 10 + 5 bonus
	wantLevel, _ := CalculateLevel(progress.TotalPoints)
	assert.Equal(t, wantLevel, progress.Level)
	assert.Equal(t, 2, progress.AchievementsUnlocked)
}

func TestAchievementProgressAndSummary(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db)
	achievements := NewAchievementService(db)
	require.NoError(t, achievements.Seed())

	// Five completed tasks on record.
	_, err := scoring.CurrentProgress()
	require.NoError(t, err)
	_, err = db.Exec(`
		UPDATE user_progress SET total_tasks_completed = 5, total_points = 50, current_streak_days = 1, level = 1
		WHERE id = 1`)
	require.NoError(t, err)

	progress, err := scoring.CurrentProgress()
	require.NoError(t, err)

	allProgress, err := achievements.Progress(progress, time.Now().UTC())
	require.NoError(t, err)

	gettingStarted, ok := allProgress["Getting Started"] // 10 tasks
	require.True(t, ok)
	assert.Equal(t, 5, gettingStarted.Current)
	assert.Equal(t, 10, gettingStarted.Required)
	assert.Equal(t, 50.0, gettingStarted.Percentage)
	assert.False(t, gettingStarted.Unlocked)

	// Percentage caps at 100 even when the requirement is exceeded.
	firstSteps := allProgress["First Steps"]
	assert.Equal(t, 100.0, firstSteps.Percentage)

	now := time.Now().UTC()
	unlocked, err := achievements.CheckAndUnlock(db, progress, now)
	require.NoError(t, err)
	require.NotEmpty(t, unlocked)

	refreshed, err := scoring.CurrentProgress()
	require.NoError(t, err)
	summary, err := achievements.Summary(refreshed, now)
	require.NoError(t, err)

	assert.Equal(t, len(unlocked), summary.TotalUnlocked)
	assert.Equal(t, len(unlocked), summary.RecentUnlocks)
	assert.Greater(t, summary.TotalPossible, summary.TotalUnlocked)
	require.NotNil(t, summary.NextMilestone)
	assert.Greater(t, summary.NextMilestone.Percentage, 0.0)
	assert.Less(t, summary.NextMilestone.Current, summary.NextMilestone.Required)
}
