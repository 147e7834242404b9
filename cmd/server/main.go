// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tahcohcat/momentum/config"
	"github.com/tahcohcat/momentum/internal/api"
	"github.com/tahcohcat/momentum/internal/database"
	"github.com/tahcohcat/momentum/internal/events"
	"github.com/tahcohcat/momentum/internal/logger"
	"github.com/tahcohcat/momentum/internal/services"
)

func main() {
	// Load config from files and environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.GlobalLogLevel = logger.LogLevel(cfg.Log.Level)

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	scoringService := services.NewScoringService(db)
	achievementService := services.NewAchievementService(db)
	goalService := services.NewGoalService(db)
	taskService := services.NewTaskService(db, scoringService, achievementService)
	analyticsService := services.NewAnalyticsService(db, scoringService)

	// Seed the achievement catalog; existing unlock state is preserved
	if err := achievementService.Seed(); err != nil {
		log.Fatalf("Failed to seed achievements: %v", err)
	}

	// Housekeeping at boot: expire stale goals, settle overdue penalties
	today := time.Now().UTC()
	if n, err := goalService.CleanupExpired(today); err != nil {
		log.Printf("Warning: failed to clean up expired goals: %v", err)
	} else if n > 0 {
		log.Printf("Deactivated %d expired goals", n)
	}
	if penalty, err := scoringService.ApplyOverduePenalties(today); err != nil {
		log.Printf("Warning: failed to apply overdue penalties: %v", err)
	} else if penalty > 0 {
		log.Printf("Applied %d overdue penalty points", penalty)
	}

	r := mux.NewRouter()

	// Event stream for live dashboards
	hub := events.RegisterRoutes(r)

	// API routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	handler := api.NewHandler(taskService, scoringService, achievementService, goalService, analyticsService, hub)
	api.RegisterRoutes(apiRouter, handler)

	// CORS setup for development
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("🚀 Momentum server starting on port %s", cfg.Server.Port)
	log.Printf("🗄️ Database: %s", cfg.Database.Path)

	if err := http.ListenAndServe(":"+cfg.Server.Port, c.Handler(r)); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
