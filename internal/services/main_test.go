package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/momentum/internal/database"
	"github.com/tahcohcat/momentum/internal/models"
)

var testDBCounter int64

// newTestDB opens a uniquely named in-memory database so tests stay isolated
// while the connection pool still sees a single shared store.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	db, err := database.NewDB(fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func createTask(t *testing.T, tasks *TaskService, size models.TaskSize) *models.Task {
	t.Helper()

	task, err := tasks.CreateTask(&models.CreateTaskRequest{
		Title: fmt.Sprintf("task %d", time.Now().UnixNano()),
		Size:  string(size),
	})
	require.NoError(t, err)
	return task
}
