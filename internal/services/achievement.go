package services

import (
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tahcohcat/momentum/internal/database"
	"github.com/tahcohcat/momentum/internal/logger"
	"github.com/tahcohcat/momentum/internal/models"
)

// Days of daily-activity history consulted for daily_goals_met requirements.
const goalsMetLookbackDays = 365

// Window for counting an unlock as recent in the summary.
const recentUnlockDays = 30

// achievementCatalog is the static definition table. Unlock state lives in
// the achievements table; the catalog itself never changes at runtime.
var achievementCatalog = []models.AchievementDefinition{
	// Task completion milestones
	{Name: "First Steps", Description: "Complete your first task", Icon: "🎯", RequirementType: models.RequirementTasksCompleted, RequirementValue: 1, BonusPoints: 10},
	{Name: "Getting Started", Description: "Complete 10 tasks", Icon: "🚀", RequirementType: models.RequirementTasksCompleted, RequirementValue: 10, BonusPoints: 25},
	{Name: "Productive", Description: "Complete 50 tasks", Icon: "⚡", RequirementType: models.RequirementTasksCompleted, RequirementValue: 50, BonusPoints: 50},
	{Name: "Century Club", Description: "Complete 100 tasks", Icon: "💯", RequirementType: models.RequirementTasksCompleted, RequirementValue: 100, BonusPoints: 100},
	{Name: "Task Master", Description: "Complete 500 tasks", Icon: "👑", RequirementType: models.RequirementTasksCompleted, RequirementValue: 500, BonusPoints: 250},
	{Name: "Legendary", Description: "Complete 1000 tasks", Icon: "🏆", RequirementType: models.RequirementTasksCompleted, RequirementValue: 1000, BonusPoints: 500},
	{Name: "Unstoppable", Description: "Complete 2500 tasks", Icon: "🚀", RequirementType: models.RequirementTasksCompleted, RequirementValue: 2500, BonusPoints: 1000},

	// Streak achievements
	{Name: "Day One", Description: "Maintain a 1-day streak", Icon: "📅", RequirementType: models.RequirementStreakDays, RequirementValue: 1, BonusPoints: 5},
	{Name: "Consistency", Description: "Maintain a 3-day streak", Icon: "📅", RequirementType: models.RequirementStreakDays, RequirementValue: 3, BonusPoints: 15},
	{Name: "Week Warrior", Description: "Maintain a 7-day streak", Icon: "🔥", RequirementType: models.RequirementStreakDays, RequirementValue: 7, BonusPoints: 35},
	{Name: "Fortnight Force", Description: "Maintain a 14-day streak", Icon: "🌟", RequirementType: models.RequirementStreakDays, RequirementValue: 14, BonusPoints: 70},
	{Name: "Month Champion", Description: "Maintain a 30-day streak", Icon: "🏆", RequirementType: models.RequirementStreakDays, RequirementValue: 30, BonusPoints: 150},
	{Name: "Streak Master", Description: "Maintain a 60-day streak", Icon: "🔥", RequirementType: models.RequirementStreakDays, RequirementValue: 60, BonusPoints: 300},
	{Name: "Century Streak", Description: "Maintain a 100-day streak", Icon: "💯", RequirementType: models.RequirementStreakDays, RequirementValue: 100, BonusPoints: 500},

	// Point accumulation
	{Name: "Point Hunter", Description: "Earn 500 points", Icon: "💰", RequirementType: models.RequirementPointsEarned, RequirementValue: 500, BonusPoints: 50},
	{Name: "Point Collector", Description: "Earn 1000 points", Icon: "💎", RequirementType: models.RequirementPointsEarned, RequirementValue: 1000, BonusPoints: 100},
	{Name: "Point Hoarder", Description: "Earn 2500 points", Icon: "💎", RequirementType: models.RequirementPointsEarned, RequirementValue: 2500, BonusPoints: 250},
	{Name: "Point Master", Description: "Earn 5000 points", Icon: "💍", RequirementType: models.RequirementPointsEarned, RequirementValue: 5000, BonusPoints: 500},
	{Name: "Point Millionaire", Description: "Earn 10000 points", Icon: "👑", RequirementType: models.RequirementPointsEarned, RequirementValue: 10000, BonusPoints: 1000},

	// Daily goal achievements
	{Name: "Goal Getter", Description: "Hit your daily goal for the first time", Icon: "🎯", RequirementType: models.RequirementDailyGoalsMet, RequirementValue: 1, BonusPoints: 20},
	{Name: "Consistent Achiever", Description: "Hit daily goal 7 times", Icon: "⭐", RequirementType: models.RequirementDailyGoalsMet, RequirementValue: 7, BonusPoints: 50},
	{Name: "Goal Crusher", Description: "Hit daily goal 30 times", Icon: "💪", RequirementType: models.RequirementDailyGoalsMet, RequirementValue: 30, BonusPoints: 150},
	{Name: "Goal Master", Description: "Hit daily goal 100 times", Icon: "🏆", RequirementType: models.RequirementDailyGoalsMet, RequirementValue: 100, BonusPoints: 500},

	// Level achievements
	{Name: "Level Up", Description: "Reach level 5", Icon: "📈", RequirementType: models.RequirementLevelReached, RequirementValue: 5, BonusPoints: 50},
	{Name: "High Achiever", Description: "Reach level 10", Icon: "🌟", RequirementType: models.RequirementLevelReached, RequirementValue: 10, BonusPoints: 100},
	{Name: "Elite Status", Description: "Reach level 20", Icon: "👑", RequirementType: models.RequirementLevelReached, RequirementValue: 20, BonusPoints: 250},

	// Reserved: special completions require per-completion time tracking.
	{Name: "Night Owl", Description: "Complete a task after 10 PM", Icon: "🦉", RequirementType: models.RequirementLateCompletion, RequirementValue: 1, BonusPoints: 15},
	{Name: "Early Bird", Description: "Complete a task before 6 AM", Icon: "🐦", RequirementType: models.RequirementEarlyCompletion, RequirementValue: 1, BonusPoints: 15},
	{Name: "Weekend Warrior", Description: "Complete 10 tasks on weekends", Icon: "🏃", RequirementType: models.RequirementWeekendTasks, RequirementValue: 10, BonusPoints: 50},
}

type AchievementService struct {
	db  *database.DB
	log *logger.Log
}

func NewAchievementService(db *database.DB) *AchievementService {
	return &AchievementService{db: db, log: logger.New()}
}

// Seed inserts the catalog definitions that are not present yet. Existing
// rows keep their unlock state untouched.
func (s *AchievementService) Seed() error {
	for _, def := range achievementCatalog {
		query := `
			INSERT OR IGNORE INTO achievements (name, description, icon, requirement_type, requirement_value, bonus_points, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := s.db.Exec(query, def.Name, def.Description, def.Icon,
			def.RequirementType, def.RequirementValue, def.BonusPoints, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to seed achievement %s: %w", def.Name, err)
		}
	}

	return nil
}

// CheckAndUnlock evaluates every locked achievement against the progress
// snapshot, unlocks the satisfied ones and awards their bonus points on the
// supplied execer. Unlocking is monotonic: a second run with unchanged
// progress returns nothing.
func (s *AchievementService) CheckAndUnlock(ext sqlx.Ext, progress *models.UserProgress, now time.Time) ([]models.Achievement, error) {
	if progress == nil {
		return nil, nil
	}

	var achievements []models.Achievement
	if err := sqlx.Select(ext, &achievements, `SELECT * FROM achievements ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	goalsMet := -1 // counted lazily, only when a daily_goals_met rule is reached
	var unlocked []models.Achievement
	bonusAwarded := 0

	for i := range achievements {
		a := &achievements[i]
		if a.IsUnlocked {
			continue
		}

		if a.RequirementType == models.RequirementDailyGoalsMet && goalsMet < 0 {
			count, err := s.countDailyGoalsMet(ext, now)
			if err != nil {
				return unlocked, err
			}
			goalsMet = count
		}

		if currentValue(a.RequirementType, progress, goalsMet) < a.RequirementValue {
			continue
		}

		unlockedAt := now.UTC()
		res, err := ext.Exec(`
			UPDATE achievements SET is_unlocked = TRUE, unlocked_at = ?
			WHERE id = ? AND is_unlocked = FALSE`,
			unlockedAt, a.ID)
		if err != nil {
			return unlocked, fmt.Errorf("failed to unlock achievement %s: %w", a.Name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// Raced with another unlock of the same row; nothing to award.
			continue
		}

		a.IsUnlocked = true
		a.UnlockedAt = &unlockedAt
		bonusAwarded += a.BonusPoints
		unlocked = append(unlocked, *a)

		// Level stays a pure function of the point total, so recompute it
		// with every bonus award.
		newTotal := progress.TotalPoints + bonusAwarded
		newLevel, pointsToNext := CalculateLevel(newTotal)
		_, err = ext.Exec(`
			UPDATE user_progress SET
				total_points = ?,
				level = ?,
				points_to_next_level = ?,
				achievements_unlocked = achievements_unlocked + 1,
				updated_at = ?
			WHERE id = 1`,
			newTotal, newLevel, pointsToNext, now.UTC())
		if err != nil {
			return unlocked, fmt.Errorf("failed to award achievement bonus: %w", err)
		}

		s.log.Unlock(a.Icon, a.Name)
	}

	return unlocked, nil
}

// currentValue maps a requirement type onto the matching progress field.
// Reserved special_* requirements always report zero.
func currentValue(requirementType string, progress *models.UserProgress, goalsMet int) int {
	switch requirementType {
	case models.RequirementTasksCompleted:
		return progress.TotalTasksCompleted
	case models.RequirementStreakDays:
		return progress.CurrentStreakDays
	case models.RequirementPointsEarned:
		return progress.TotalPoints
	case models.RequirementLevelReached:
		return progress.Level
	case models.RequirementDailyGoalsMet:
		if goalsMet < 0 {
			return 0
		}
		return goalsMet
	default:
		return 0
	}
}

func (s *AchievementService) countDailyGoalsMet(ext sqlx.Ext, now time.Time) (int, error) {
	since := models.DateOnly(now).AddDate(0, 0, -goalsMetLookbackDays)

	var count int
	err := sqlx.Get(ext, &count, `
		SELECT COUNT(*) FROM daily_activity
		WHERE daily_goal_met = TRUE AND activity_date >= ?`, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count daily goals met: %w", err)
	}
	return count, nil
}

// All returns every achievement, unlocked first.
func (s *AchievementService) All() ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := s.db.Select(&achievements, `
		SELECT * FROM achievements ORDER BY is_unlocked DESC, requirement_type, requirement_value`)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	return achievements, nil
}

// Progress reports how far along every achievement is for the given snapshot.
func (s *AchievementService) Progress(progress *models.UserProgress, today time.Time) (map[string]models.AchievementProgress, error) {
	if progress == nil {
		return map[string]models.AchievementProgress{}, nil
	}

	achievements, err := s.All()
	if err != nil {
		return nil, err
	}

	goalsMet, err := s.countDailyGoalsMet(s.db, today)
	if err != nil {
		return nil, err
	}

	result := make(map[string]models.AchievementProgress, len(achievements))
	for _, a := range achievements {
		current := currentValue(a.RequirementType, progress, goalsMet)
		pct := 0.0
		if a.RequirementValue > 0 {
			pct = math.Min(100, float64(current)/float64(a.RequirementValue)*100)
		}

		result[a.Name] = models.AchievementProgress{
			Description: a.Description,
			Icon:        a.Icon,
			Current:     current,
			Required:    a.RequirementValue,
			Percentage:  math.Round(pct*10) / 10,
			BonusPoints: a.BonusPoints,
			Unlocked:    a.IsUnlocked,
		}
	}
	return result, nil
}

// Summary condenses unlock totals, recent unlocks and the next milestone: the
// started-but-incomplete achievement with the highest completion percentage.
func (s *AchievementService) Summary(progress *models.UserProgress, today time.Time) (*models.AchievementsSummary, error) {
	achievements, err := s.All()
	if err != nil {
		return nil, err
	}

	summary := &models.AchievementsSummary{TotalPossible: len(achievements)}

	cutoff := models.DateOnly(today).AddDate(0, 0, -recentUnlockDays)
	for _, a := range achievements {
		if !a.IsUnlocked {
			continue
		}
		summary.TotalUnlocked++
		if a.UnlockedAt != nil && a.UnlockedAt.After(cutoff) {
			summary.RecentUnlocks++
		}
	}

	if summary.TotalPossible > 0 {
		pct := float64(summary.TotalUnlocked) / float64(summary.TotalPossible) * 100
		summary.CompletionPercentage = math.Round(pct*10) / 10
	}

	allProgress, err := s.Progress(progress, today)
	if err != nil {
		return nil, err
	}

	for name, p := range allProgress {
		if p.Unlocked || p.Current <= 0 || p.Current >= p.Required {
			continue
		}
		if summary.NextMilestone == nil || p.Percentage > summary.NextMilestone.Percentage {
			summary.NextMilestone = &models.NextMilestone{
				Name:        name,
				Description: p.Description,
				Icon:        p.Icon,
				Current:     p.Current,
				Required:    p.Required,
				Percentage:  p.Percentage,
			}
		}
	}

	return summary, nil
}
