package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"floorplan-engine/internal/common/config"
	"floorplan-engine/internal/common/middleware"
	"floorplan-engine/internal/planner/editor"
	"floorplan-engine/internal/planner/handlers"
	"floorplan-engine/internal/planner/repository"
	"floorplan-engine/internal/planner/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Planner Service
// ============================================================

func main() {
	cfg := config.Load()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	sessions := service.NewSessionManager(repo, editor.Options{
		SnapDistance: cfg.SnapDistance,
		HistoryLimit: cfg.HistoryLimit,
		WallWidth:    cfg.WallWidth,
	})
	exports := service.NewFileStorage(cfg.ExportDir)
	planHandler := handlers.NewPlanHandler(repo, sessions, exports, cfg.WallWidth, cfg.EraseRadius)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Planner Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins...))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(repo))
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// Plan Routes
	// ============================================================

	planHandler.Register(app.Group("/api/v1"))

	// ============================================================
	// Docs
	// ============================================================

	handlers.NewDocsHandler(handlers.SpecPath).Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Planner Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
