package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/klinik/klinik/internal/config"
	"github.com/klinik/klinik/internal/domain/catalog"
	"github.com/klinik/klinik/internal/domain/patient"
	"github.com/klinik/klinik/internal/domain/visit"
	"github.com/klinik/klinik/internal/platform/auth"
	"github.com/klinik/klinik/internal/platform/db"
	"github.com/klinik/klinik/internal/platform/middleware"
	"github.com/klinik/klinik/internal/platform/sandbox"
	"github.com/klinik/klinik/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "klinik-server",
		Short: "Clinic front office API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the front office API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-30s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-30s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo master data and synthetic patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			patients, _ := cmd.Flags().GetInt("patients")
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			seedCfg := sandbox.DefaultSeedConfig()
			if patients > 0 {
				seedCfg.PatientCount = patients
			}
			if seed != 0 {
				seedCfg.Seed = seed
			}
			if err := sandbox.NewSeeder(pool).Run(ctx, seedCfg); err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Printf("Seeded master data and %d patient(s).\n", seedCfg.PatientCount)
			return nil
		},
	}
	cmd.Flags().Int("patients", 0, "Number of synthetic patients to insert")
	cmd.Flags().Int64("seed", 0, "Random seed for reproducible batches")
	return cmd
}

// queueNotifier forwards queue events to the display boards: once on the
// global queue topic and once on the visit's room topic.
type queueNotifier struct {
	hub *websocket.Hub
}

func (n *queueNotifier) VisitCreated(e visit.QueueEvent) {
	n.hub.PublishJSON(websocket.TopicQueue, websocket.EventVisitCreated, e)
	n.hub.PublishJSON(websocket.RoomTopic(e.RoomID), websocket.EventVisitCreated, e)
}

func (n *queueNotifier) StatusChanged(e visit.QueueEvent) {
	n.hub.PublishJSON(websocket.TopicQueue, websocket.EventStatusChanged, e)
	n.hub.PublishJSON(websocket.RoomTopic(e.RoomID), websocket.EventStatusChanged, e)
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Queue display board hub; boards connect unauthenticated.
	hub := websocket.NewHub()
	websocket.NewHandler(hub).RegisterRoutes(e.Group(""))

	// Authenticated API
	apiV1 := e.Group("/api/v1")
	apiV1.Use(auth.Middleware(cfg.JWTSecret, cfg.IsDev()))

	// Catalog domain
	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)

	// Patient domain
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Visit domain
	visitRepo := visit.NewRepoPG(pool)
	quotaRepo := visit.NewQuotaRepoPG(pool)
	visitSvc := visit.NewService(visitRepo, quotaRepo, catalogRepo, &queueNotifier{hub: hub})
	visit.NewHandler(visitSvc).RegisterRoutes(apiV1)

	// Registration form sessions over WebSocket
	sessions := visit.NewSessionHandler(patientSvc, catalogSvc, visitSvc, visitSvc, logger)
	sessions.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
