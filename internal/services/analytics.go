package services

import (
	"fmt"
	"time"

	"github.com/tahcohcat/momentum/internal/database"
	"github.com/tahcohcat/momentum/internal/logger"
	"github.com/tahcohcat/momentum/internal/models"
)

// WeekSummary compares the current week against the previous one.
type WeekSummary struct {
	WeekStart      string `json:"week_start"`
	WeekEnd        string `json:"week_end"`
	CompletedTasks int    `json:"completed_tasks"`
	PointsEarned   int    `json:"points_earned"`
}

type WeeklyComparison struct {
	CurrentWeek  WeekSummary `json:"current_week"`
	PreviousWeek WeekSummary `json:"previous_week"`
	Change       int         `json:"change"`
}

type ProductivityReport struct {
	TotalCompleted int     `json:"total_completed"`
	TotalCreated   int     `json:"total_created"`
	CompletionRate float64 `json:"completion_rate"`
	CurrentStreak  int     `json:"current_streak"`
	TotalPoints    int     `json:"total_points"`
	Trend          string  `json:"trend"`
}

// AnalyticsService produces thin display aggregates over the same store the
// engine writes. A fault here degrades to an empty report; it never blocks
// the completion workflow.
type AnalyticsService struct {
	db      *database.DB
	scoring *ScoringService
	log     *logger.Log
}

func NewAnalyticsService(db *database.DB, scoring *ScoringService) *AnalyticsService {
	return &AnalyticsService{db: db, scoring: scoring, log: logger.New()}
}

// WeeklySummary reports this week's completions next to last week's.
func (s *AnalyticsService) WeeklySummary(today time.Time) (*WeeklyComparison, error) {
	weekStart, weekEnd := models.PeriodBounds(models.GoalWeekly, today)
	prevStart := weekStart.AddDate(0, 0, -7)
	prevEnd := weekStart.AddDate(0, 0, -1)

	current, err := s.completionsBetween(weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	previous, err := s.completionsBetween(prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	return &WeeklyComparison{
		CurrentWeek: WeekSummary{
			WeekStart:      weekStart.Format("2006-01-02"),
			WeekEnd:        weekEnd.Format("2006-01-02"),
			CompletedTasks: current,
			PointsEarned:   current * approxPointsPerTask,
		},
		PreviousWeek: WeekSummary{
			WeekStart:      prevStart.Format("2006-01-02"),
			WeekEnd:        prevEnd.Format("2006-01-02"),
			CompletedTasks: previous,
			PointsEarned:   previous * approxPointsPerTask,
		},
		Change: current - previous,
	}, nil
}

// Report summarizes the trailing window. Errors degrade to a zero-valued
// report so a reporting fault never surfaces as a hard failure.
func (s *AnalyticsService) Report(today time.Time, days int) *ProductivityReport {
	if days <= 0 {
		days = 30
	}

	report, err := s.buildReport(today, days)
	if err != nil {
		s.log.WithError(err).Warn("productivity report failed, returning empty report")
		return &ProductivityReport{Trend: "stable"}
	}
	return report
}

func (s *AnalyticsService) buildReport(today time.Time, days int) (*ProductivityReport, error) {
	end := models.DateOnly(today)
	start := end.AddDate(0, 0, -days)

	completed, err := s.completionsBetween(start, end)
	if err != nil {
		return nil, err
	}

	var created int
	if err := s.db.Get(&created, `
		SELECT COUNT(*) FROM tasks WHERE created_at >= ? AND created_at < ?`,
		start, end.AddDate(0, 0, 1)); err != nil {
		return nil, fmt.Errorf("failed to count created tasks: %w", err)
	}

	progress, err := s.scoring.CurrentProgress()
	if err != nil {
		return nil, err
	}

	rate := 0.0
	if created > 0 {
		rate = float64(completed) / float64(created) * 100
	}

	trend, err := s.trendDirection(start, end)
	if err != nil {
		return nil, err
	}

	return &ProductivityReport{
		TotalCompleted: completed,
		TotalCreated:   created,
		CompletionRate: rate,
		CurrentStreak:  progress.CurrentStreakDays,
		TotalPoints:    progress.TotalPoints,
		Trend:          trend,
	}, nil
}

// trendDirection compares completions in the first and second half of the
// window.
func (s *AnalyticsService) trendDirection(start, end time.Time) (string, error) {
	mid := start.Add(end.Sub(start) / 2)

	firstHalf, err := s.completionsBetween(start, mid)
	if err != nil {
		return "", err
	}
	secondHalf, err := s.completionsBetween(mid.AddDate(0, 0, 1), end)
	if err != nil {
		return "", err
	}

	switch {
	case secondHalf > firstHalf:
		return "improving", nil
	case secondHalf < firstHalf:
		return "declining", nil
	default:
		return "stable", nil
	}
}

func (s *AnalyticsService) completionsBetween(start, end time.Time) (int, error) {
	var count int
	err := s.db.Get(&count, `
		SELECT COUNT(*) FROM tasks
		WHERE status = ? AND completed_at >= ? AND completed_at < ?`,
		models.StatusCompleted, models.DateOnly(start), models.DateOnly(end).AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count, nil
}
