package models

import (
	"time"
)

type TaskSize string

const (
	SizeSmall  TaskSize = "small"
	SizeMedium TaskSize = "medium"
	SizeLarge  TaskSize = "large"
)

// ParseTaskSize maps arbitrary input to a known size, defaulting to medium.
func ParseTaskSize(s string) TaskSize {
	switch TaskSize(s) {
	case SizeSmall, SizeMedium, SizeLarge:
		return TaskSize(s)
	default:
		return SizeMedium
	}
}

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusArchived  TaskStatus = "archived"
)

type Task struct {
	ID          int        `json:"id" db:"id"`
	UUID        string     `json:"uuid" db:"uuid"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	Size        TaskSize   `json:"size" db:"size"`
	Category    string     `json:"category" db:"category"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// Points recorded at completion time.
	BasePoints        int `json:"base_points" db:"base_points"`
	BonusPoints       int `json:"bonus_points" db:"bonus_points"`
	TotalPointsEarned int `json:"total_points_earned" db:"total_points_earned"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the task's due date has passed without completion.
func (t *Task) IsOverdue(today time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted || t.Status == StatusArchived {
		return false
	}
	return DateOnly(*t.DueDate).Before(DateOnly(today))
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Size        string `json:"size"`
	Category    string `json:"category"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD, optional
}
