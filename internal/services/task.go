package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tahcohcat/momentum/internal/database"
	"github.com/tahcohcat/momentum/internal/logger"
	"github.com/tahcohcat/momentum/internal/models"
)

// CompletionResult bundles everything one completion produced: the updated
// task, what it scored, and any achievements it unlocked.
type CompletionResult struct {
	Task                 *models.Task          `json:"task"`
	Scoring              *models.ScoringResult `json:"scoring"`
	UnlockedAchievements []models.Achievement  `json:"unlocked_achievements"`
}

type TaskService struct {
	db           *database.DB
	scoring      *ScoringService
	achievements *AchievementService
	log          *logger.Log
}

func NewTaskService(db *database.DB, scoring *ScoringService, achievements *AchievementService) *TaskService {
	return &TaskService{
		db:           db,
		scoring:      scoring,
		achievements: achievements,
		log:          logger.New(),
	}
}

// CreateTask records a new pending task and bumps the created counters.
func (s *TaskService) CreateTask(req *models.CreateTaskRequest) (*models.Task, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("task title is required")
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due date %q: %w", req.DueDate, err)
		}
		due := models.DateOnly(parsed)
		dueDate = &due
	}

	now := time.Now().UTC()
	task := &models.Task{
		UUID:        uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      models.StatusPending,
		Size:        models.ParseTaskSize(req.Size),
		Category:    req.Category,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO tasks (uuid, title, description, status, size, category, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.UUID, task.Title, task.Description, task.Status, task.Size, task.Category, task.DueDate, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get task ID: %w", err)
	}
	task.ID = int(id)

	if _, err := s.scoring.loadOrInitProgress(tx); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`
		UPDATE user_progress SET total_tasks_created = total_tasks_created + 1, updated_at = ? WHERE id = 1`,
		now); err != nil {
		return nil, fmt.Errorf("failed to update created count: %w", err)
	}

	day := models.DateOnly(now)
	if _, err := tx.Exec(`
		INSERT INTO daily_activity (activity_date, tasks_created, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(activity_date) DO UPDATE SET
			tasks_created = tasks_created + 1,
			updated_at = excluded.updated_at`,
		day, now, now); err != nil {
		return nil, fmt.Errorf("failed to record task creation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task creation: %w", err)
	}

	return task, nil
}

// CompleteTask marks a task completed and applies the full gamification
// update. Scoring, daily activity, streak and achievement unlocks commit in
// one transaction so the model can never be left partially applied. A failure
// inside the achievement check degrades to "no unlocks this cycle" without
// aborting the completion.
func (s *TaskService) CompleteTask(id int, today time.Time) (*CompletionResult, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	scoring, err := s.scoring.ApplyCompletion(tx, task, today)
	if err != nil {
		return nil, err
	}

	// The completion timestamp lands inside the supplied completion day.
	now := time.Now().UTC()
	completedAt := models.DateOnly(today).Add(now.Sub(models.DateOnly(now)))

	if _, err := tx.Exec(`
		UPDATE tasks SET
			status = ?,
			completed_at = ?,
			base_points = ?,
			bonus_points = ?,
			total_points_earned = ?,
			updated_at = ?
		WHERE id = ?`,
		models.StatusCompleted, completedAt, scoring.BasePoints, scoring.BonusPoints,
		scoring.TotalPoints, now, task.ID); err != nil {
		return nil, fmt.Errorf("failed to mark task completed: %w", err)
	}

	task.Status = models.StatusCompleted
	task.CompletedAt = &completedAt
	task.BasePoints = scoring.BasePoints
	task.BonusPoints = scoring.BonusPoints
	task.TotalPointsEarned = scoring.TotalPoints

	progress, err := s.scoring.loadOrInitProgress(tx)
	if err != nil {
		return nil, err
	}

	// The achievement check runs under a savepoint so a fault partway through
	// rolls back every achievement-side write. Unlocks and their bonus awards
	// land together or not at all; the scoring commit is unaffected either way.
	if _, err := tx.Exec(`SAVEPOINT achievement_check`); err != nil {
		return nil, fmt.Errorf("failed to create savepoint: %w", err)
	}
	unlocked, err := s.achievements.CheckAndUnlock(tx, progress, now)
	if err != nil {
		s.log.WithError(err).Warn("achievement check failed, no unlocks this cycle")
		unlocked = nil
		if _, err := tx.Exec(`ROLLBACK TO SAVEPOINT achievement_check`); err != nil {
			return nil, fmt.Errorf("failed to roll back achievement check: %w", err)
		}
	}
	if _, err := tx.Exec(`RELEASE SAVEPOINT achievement_check`); err != nil {
		return nil, fmt.Errorf("failed to release savepoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	return &CompletionResult{
		Task:                 task,
		Scoring:              scoring,
		UnlockedAchievements: unlocked,
	}, nil
}

// GetTask fetches a task by ID.
func (s *TaskService) GetTask(id int) (*models.Task, error) {
	var task models.Task
	err := s.db.Get(&task, `SELECT * FROM tasks WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// ActiveTasks returns pending tasks, oldest first.
func (s *TaskService) ActiveTasks() ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.Select(&tasks, `
		SELECT * FROM tasks WHERE status = ? ORDER BY created_at, id`,
		models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tasks: %w", err)
	}
	return tasks, nil
}

// OverdueTasks returns pending tasks whose due date has passed.
func (s *TaskService) OverdueTasks(today time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.Select(&tasks, `
		SELECT * FROM tasks
		WHERE status = ? AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date, id`,
		models.StatusPending, models.DateOnly(today))
	if err != nil {
		return nil, fmt.Errorf("failed to get overdue tasks: %w", err)
	}
	return tasks, nil
}
