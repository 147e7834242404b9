package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sqlx.DB
}

// NewDB creates a new database connection
func NewDB(databaseURL string) (*DB, error) {
	if databaseURL == "" {
		databaseURL = "momentum.db" // Default SQLite file
	}

	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	db, err := sqlx.Connect("sqlite3", databaseURL+sep+"_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dbWrapper := &DB{DB: db}

	// Initialize database schema
	if err := dbWrapper.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return dbWrapper, nil
}

// createTables creates the necessary database tables
func (db *DB) createTables() error {
	// Task records
	tasksTable := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		size TEXT NOT NULL DEFAULT 'medium',
		category TEXT DEFAULT '',
		due_date DATE,
		completed_at DATETIME,
		base_points INTEGER DEFAULT 0,
		bonus_points INTEGER DEFAULT 0,
		total_points_earned INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	// Singleton gamification aggregate
	progressTable := `
	CREATE TABLE IF NOT EXISTS user_progress (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_points INTEGER DEFAULT 0,
		level INTEGER DEFAULT 1,
		points_to_next_level INTEGER DEFAULT 100,
		total_tasks_completed INTEGER DEFAULT 0,
		total_tasks_created INTEGER DEFAULT 0,
		current_streak_days INTEGER DEFAULT 0,
		longest_streak_days INTEGER DEFAULT 0,
		last_completion_date DATE,
		daily_goal INTEGER DEFAULT 3,
		weekly_goal INTEGER DEFAULT 20,
		monthly_goal INTEGER DEFAULT 80,
		achievements_unlocked INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	// Per-calendar-day rollup
	activityTable := `
	CREATE TABLE IF NOT EXISTS daily_activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		activity_date DATE UNIQUE NOT NULL,
		tasks_completed INTEGER DEFAULT 0,
		tasks_created INTEGER DEFAULT 0,
		base_points_earned INTEGER DEFAULT 0,
		streak_bonus_earned INTEGER DEFAULT 0,
		daily_goal_bonus_earned INTEGER DEFAULT 0,
		total_points_earned INTEGER DEFAULT 0,
		overdue_penalty_applied INTEGER DEFAULT 0,
		daily_goal_met BOOLEAN DEFAULT FALSE,
		streak_active BOOLEAN DEFAULT FALSE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	// Achievement catalog plus unlock state
	achievementsTable := `
	CREATE TABLE IF NOT EXISTS achievements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL,
		icon TEXT DEFAULT '',
		requirement_type TEXT NOT NULL,
		requirement_value INTEGER NOT NULL,
		bonus_points INTEGER DEFAULT 0,
		is_unlocked BOOLEAN DEFAULT FALSE,
		unlocked_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	// Weekly and monthly goals
	goalsTable := `
	CREATE TABLE IF NOT EXISTS goals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		goal_type TEXT NOT NULL,
		category TEXT NOT NULL,
		target_value INTEGER NOT NULL,
		current_value INTEGER DEFAULT 0,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		is_active BOOLEAN DEFAULT TRUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	// Create indexes for better performance
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_completed_at ON tasks(completed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_date ON daily_activity(activity_date);`,
		`CREATE INDEX IF NOT EXISTS idx_achievements_name ON achievements(name);`,
		`CREATE INDEX IF NOT EXISTS idx_goals_active ON goals(is_active, goal_type, category);`,
	}

	// Execute table creation
	tables := []string{tasksTable, progressTable, activityTable, achievementsTable, goalsTable}
	for _, query := range tables {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create indexes
	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
