package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/assessly/internal/application"
	appai "github.com/bryanwahyu/assessly/internal/application/ai"
	appassess "github.com/bryanwahyu/assessly/internal/application/assessments"
	"github.com/bryanwahyu/assessly/internal/application/notify"
	"github.com/bryanwahyu/assessly/internal/config"
	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
	aiclient "github.com/bryanwahyu/assessly/internal/infra/ai/openai"
	"github.com/bryanwahyu/assessly/internal/infra/collab"
	mysqlp "github.com/bryanwahyu/assessly/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/assessly/internal/infra/db/postgres"
	"github.com/bryanwahyu/assessly/internal/infra/httpserver"
	mailinfra "github.com/bryanwahyu/assessly/internal/infra/mail"
	"github.com/bryanwahyu/assessly/internal/infra/report"
	"github.com/bryanwahyu/assessly/internal/infra/storage"
	"github.com/bryanwahyu/assessly/internal/middleware"
	"github.com/bryanwahyu/assessly/internal/platform/logger"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logg.Sync()

	ctx := context.Background()

	// connect database (mysql default, postgres opt-in)
	var (
		db   *sql.DB
		repo domain.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logg.Fatal("postgres connect error", "err", err)
		}
		repo = postgresp.NewAssessmentRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logg.Fatal("mysql connect error", "err", err)
		}
		repo = mysqlp.NewAssessmentRepository(db)
	}
	defer db.Close()

	// artifact store on local disk
	store, err := storage.NewLocal(cfg.Uploads.Root)
	if err != nil {
		logg.Fatal("storage init error", "err", err)
	}

	// optional object-storage mirror
	var mirror domain.ArtifactMirror
	if cfg.Minio.Enabled {
		m, err := storage.NewMirror(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logg.Fatal("minio init error", "err", err)
		}
		mirror = m
	}

	// language model client; missing credential disables the stage, it
	// never blocks completions
	var aiSvc *appai.Service
	if client, err := aiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model); err != nil {
		logg.Warn("ai client disabled", "err", err)
	} else {
		aiSvc = appai.NewService(client, time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second)
	}

	// completion mail
	var notifier *notify.Service
	if cfg.Mail.Enabled {
		sender := mailinfra.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
		notifier = notify.NewService(sender, cfg.Server.BaseURL, logg)
	}

	svc := &appassess.Service{
		Repo:      repo,
		Catalog:   collab.NewCatalogClient(cfg.Services.SurveyURL),
		Users:     collab.NewDirectoryClient(cfg.Services.UserURL),
		AI:        aiSvc,
		Renderer:  report.NewPDFRenderer(),
		Artifacts: store,
		Mirror:    mirror,
		Notifier:  notifier,
		Clock:     application.SystemClock{},
		Log:       logg,
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(middleware.Logging(logg))
	mux.Use(middleware.CountRequests)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Use(middleware.APIKeyAuth(cfg.Server.APIKeys))

	limiter := middleware.NewRateLimiter(30, 10)
	mux.Group(func(g chi.Router) {
		g.Use(limiter.Middleware)
		g.Mount("/", httpserver.NewRouter(svc))
	})

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"uploads":  &middleware.UploadsHealthChecker{Root: cfg.Uploads.Root},
	}))
	mux.Get("/metrics", middleware.MetricsHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // completion waits on the model call
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logg.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("server error", "err", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logg.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logg.Error("shutdown error", "err", err)
	}
}
