package server

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"kpitrack/internal/auth"
	"kpitrack/internal/domain/kpi"
	"kpitrack/internal/domain/notifications"
	"kpitrack/internal/domain/org"
	"kpitrack/internal/domain/reports"
	"kpitrack/internal/platform/config"
	"kpitrack/internal/platform/db"
	"kpitrack/internal/platform/events"
	"kpitrack/internal/platform/jobs"
	"kpitrack/internal/transport/http/api"
	kpihandler "kpitrack/internal/transport/http/handlers/kpi"
	notificationshandler "kpitrack/internal/transport/http/handlers/notifications"
	orghandler "kpitrack/internal/transport/http/handlers/org"
	reportshandler "kpitrack/internal/transport/http/handlers/reports"
	"kpitrack/internal/transport/http/middleware"
)

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	orgStore := org.NewStore(pool)
	kpiStore := kpi.NewStore(pool)
	notificationsStore := notifications.NewStore(pool)

	bus := events.NewBus()
	notificationsService := notifications.New(notificationsStore)
	bus.Subscribe(notificationsService.HandleEvent)
	if cfg.RedisAddr != "" {
		client := events.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		publisher := events.NewRedisPublisher(client, cfg.RedisEventStream)
		bus.Subscribe(publisher.Handle)
		slog.Info("redis event stream enabled", "addr", cfg.RedisAddr, "stream", cfg.RedisEventStream)
	}

	orgService := org.NewService(orgStore)
	kpiService := kpi.NewService(kpiStore, orgStore, bus)
	reportsService := reports.NewService(orgStore, kpiStore)
	jobsService := jobs.New(pool, cfg, kpiService)
	jobsService.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(1 << 20))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Environment != "production" {
			r.Post("/auth/token", devTokenHandler(cfg.JWTSecret))
		}

		orghandler.NewHandler(orgService).RegisterRoutes(r)
		kpihandler.NewHandler(kpiService, jobsService).RegisterRoutes(r)
		reportshandler.NewHandler(reportsService).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationsService).RegisterRoutes(r)
	})

	slog.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// devTokenHandler mints tokens for local development. Production deployments
// receive tokens from the external identity provider instead.
func devTokenHandler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			ActorID string `json:"actorId"`
			Name    string `json:"name"`
			Level   string `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ActorID == "" {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "actorId is required", middleware.GetRequestID(r.Context()))
			return
		}
		token, err := auth.GenerateToken(secret, auth.Claims{
			ActorID: payload.ActorID,
			Name:    payload.Name,
			Level:   payload.Level,
		}, 24*time.Hour)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "token_failed", "token generation failed", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]string{"token": token}, middleware.GetRequestID(r.Context()))
	}
}
