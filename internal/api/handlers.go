package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/tahcohcat/momentum/internal/events"
	"github.com/tahcohcat/momentum/internal/logger"
	"github.com/tahcohcat/momentum/internal/models"
	"github.com/tahcohcat/momentum/internal/services"
)

type Handler struct {
	tasks        *services.TaskService
	scoring      *services.ScoringService
	achievements *services.AchievementService
	goals        *services.GoalService
	analytics    *services.AnalyticsService
	hub          *events.Hub
	log          *logger.Log
}

func NewHandler(
	tasks *services.TaskService,
	scoring *services.ScoringService,
	achievements *services.AchievementService,
	goals *services.GoalService,
	analytics *services.AnalyticsService,
	hub *events.Hub,
) *Handler {
	return &Handler{
		tasks:        tasks,
		scoring:      scoring,
		achievements: achievements,
		goals:        goals,
		analytics:    analytics,
		hub:          hub,
		log:          logger.New(),
	}
}

// RegisterRoutes mounts the engine's JSON surface on the given router.
func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	r.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	r.HandleFunc("/tasks/{id:[0-9]+}/complete", h.CompleteTask).Methods("POST")

	r.HandleFunc("/progress", h.Progress).Methods("GET")

	r.HandleFunc("/achievements", h.Achievements).Methods("GET")
	r.HandleFunc("/achievements/progress", h.AchievementProgress).Methods("GET")
	r.HandleFunc("/achievements/summary", h.AchievementsSummary).Methods("GET")

	r.HandleFunc("/goals", h.CreateGoal).Methods("POST")
	r.HandleFunc("/goals", h.ListGoals).Methods("GET")
	r.HandleFunc("/goals/summary", h.GoalsSummary).Methods("GET")
	r.HandleFunc("/goals/suggestions", h.GoalSuggestions).Methods("GET")
	r.HandleFunc("/goals/{id:[0-9]+}", h.DeleteGoal).Methods("DELETE")

	r.HandleFunc("/analytics/weekly", h.WeeklySummary).Methods("GET")
	r.HandleFunc("/analytics/report", h.ProductivityReport).Methods("GET")
}

// POST /api/v1/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Size = string(matchTaskSize(req.Size))

	task, err := h.tasks.CreateTask(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// GET /api/v1/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ActiveTasks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// POST /api/v1/tasks/{id}/complete
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID", http.StatusBadRequest)
		return
	}

	today := time.Now().UTC()
	result, err := h.tasks.CompleteTask(id, today)
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	case errors.Is(err, services.ErrAlreadyCompleted):
		http.Error(w, "Task already completed", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Goal progress refreshes opportunistically after a completion; a fault
	// here never fails the completion itself.
	if progress, err := h.scoring.CurrentProgress(); err != nil {
		h.log.WithError(err).Warn("failed to load progress for goal refresh")
	} else if err := h.goals.UpdateProgress(progress, today); err != nil {
		h.log.WithError(err).Warn("failed to refresh goal progress")
	}

	h.publishCompletionEvents(result)

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) publishCompletionEvents(result *services.CompletionResult) {
	if h.hub == nil {
		return
	}

	h.hub.Publish(events.Event{Type: events.EventTaskCompleted, Payload: result.Scoring})
	if result.Scoring.LevelUp {
		h.hub.Publish(events.Event{Type: events.EventLevelUp, Payload: result.Scoring.NewLevel})
	}
	if result.Scoring.DailyGoalMet {
		h.hub.Publish(events.Event{Type: events.EventDailyGoalMet, Payload: nil})
	}
	for _, a := range result.UnlockedAchievements {
		h.hub.Publish(events.Event{Type: events.EventAchievementUnlocked, Payload: a})
	}
}

// GET /api/v1/progress
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scoring.ProgressSummary(time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GET /api/v1/achievements
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.achievements.All()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": achievements})
}

// GET /api/v1/achievements/progress
func (h *Handler) AchievementProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.scoring.CurrentProgress()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	achievementProgress, err := h.achievements.Progress(progress, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, achievementProgress)
}

// GET /api/v1/achievements/summary
func (h *Handler) AchievementsSummary(w http.ResponseWriter, r *http.Request) {
	progress, err := h.scoring.CurrentProgress()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summary, err := h.achievements.Summary(progress, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// POST /api/v1/goals
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	goalType, ok := matchGoalType(req.Type)
	if !ok {
		http.Error(w, "Invalid goal type", http.StatusBadRequest)
		return
	}
	category, ok := matchGoalCategory(req.Category)
	if !ok {
		http.Error(w, "Invalid goal category", http.StatusBadRequest)
		return
	}

	goal, err := h.goals.CreateGoal(goalType, category, req.TargetValue, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// GET /api/v1/goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	h.refreshGoals()

	goals, err := h.goals.ActiveGoals()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

// GET /api/v1/goals/summary
func (h *Handler) GoalsSummary(w http.ResponseWriter, r *http.Request) {
	h.refreshGoals()

	summary, err := h.goals.Summary(time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GET /api/v1/goals/suggestions
func (h *Handler) GoalSuggestions(w http.ResponseWriter, r *http.Request) {
	progress, err := h.scoring.CurrentProgress()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	suggestions, err := h.goals.SuggestGoals(progress, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

// DELETE /api/v1/goals/{id}
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}

	if err := h.goals.DeleteGoal(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.Error(w, "Goal not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/analytics/weekly
func (h *Handler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.WeeklySummary(time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GET /api/v1/analytics/report?days=30
func (h *Handler) ProductivityReport(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			days = parsed
		}
	}

	writeJSON(w, http.StatusOK, h.analytics.Report(time.Now().UTC(), days))
}

// refreshGoals brings goal progress up to date before a read; failures only
// log.
func (h *Handler) refreshGoals() {
	today := time.Now().UTC()
	if _, err := h.goals.CleanupExpired(today); err != nil {
		h.log.WithError(err).Warn("failed to clean up expired goals")
	}

	progress, err := h.scoring.CurrentProgress()
	if err != nil {
		h.log.WithError(err).Warn("failed to load progress for goal refresh")
		return
	}
	if err := h.goals.UpdateProgress(progress, today); err != nil {
		h.log.WithError(err).Warn("failed to refresh goal progress")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
