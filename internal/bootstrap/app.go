// Package bootstrap builds the application graph from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "gradesync/internal/auth"
	"gradesync/internal/brightspace"
	"gradesync/internal/courses"
	"gradesync/internal/notifications"
	"gradesync/internal/queue"
	"gradesync/internal/services/health"
	"gradesync/internal/shared/config"
	"gradesync/internal/shared/server"
	"gradesync/internal/shared/server/middleware"
	"gradesync/internal/shared/storage/db"
	"gradesync/internal/shared/storage/object"
	localstore "gradesync/internal/shared/storage/object/local"
	s3store "gradesync/internal/shared/storage/object/s3"
	"gradesync/internal/shared/telemetry"
	"gradesync/internal/syllabus"
	"gradesync/internal/users"
)

// App holds the wired dependencies and the HTTP router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	UsersRepo         users.Repo
	CoursesRepo       courses.Repo
	NotificationsRepo notifications.Repo

	UsersService         *users.Service
	CoursesService       *courses.Service
	SyllabusService      *syllabus.Service
	NotificationsService *notifications.Service
	Senders              []notifications.Sender
}

// Build connects storage, constructs services and handlers, and mounts the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store, Queue: queueClient}
	app.buildServices()

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Health: health.NewService(pinger, cfg.ObjectStoreType),
		GoogleAuth: googleauth.NewGoogleService(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
			cfg.UIRedirectURL,
			app.UsersService,
		),
		UserHandler:          users.NewHandler(app.UsersService),
		CourseHandler:        courses.NewHandler(app.CoursesService),
		SyllabusHandler:      syllabus.NewHandler(app.SyllabusService),
		NotificationsHandler: notifications.NewHandler(app.NotificationsService),
		Limiter:              middleware.NewLimiter(nil),
	})
	return app, nil
}

func (app *App) buildServices() {
	cfg := app.Config
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.CoursesRepo = &courses.PGRepo{DB: app.DB}
		app.NotificationsRepo = &notifications.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.CoursesRepo = courses.NewMemoryRepo()
		app.NotificationsRepo = notifications.NewMemoryRepo()
	}

	var provider brightspace.Provider
	if cfg.UseSyntheticData {
		provider = brightspace.NewSyntheticProvider(nil, nil)
	}
	courseSvc := courses.NewService(app.CoursesRepo, provider)
	if cfg.DefaultTargetGrade > 0 {
		courseSvc.DefaultTargetGrade = cfg.DefaultTargetGrade
	}

	syllabusSvc := syllabus.NewService(app.Store, courseSvc)
	syllabusSvc.MaxBytes = cfg.MaxSyllabusBytes

	app.UsersService = users.NewService(app.UsersRepo)
	app.CoursesService = courseSvc
	app.SyllabusService = syllabusSvc
	app.Senders = buildSenders(cfg, app.Queue)
	app.NotificationsService = &notifications.Service{
		Repo:       app.NotificationsRepo,
		Courses:    courseSvc,
		Recipients: app.UsersService,
		Senders:    app.Senders,
		Threshold:  cfg.GradeThreshold,
		AlertEmail: cfg.AlertEmail,
	}
}

// buildSenders picks the email channel: the SQS mail worker when a queue is
// configured, otherwise SendGrid when a key is set. The log sender is always present.
func buildSenders(cfg config.Config, client queue.Client) []notifications.Sender {
	var senders []notifications.Sender
	switch {
	case client != nil:
		senders = append(senders, notifications.NewQueueSender(client))
	case cfg.SendGridAPIKey != "":
		senders = append(senders, notifications.NewSendGridSender(cfg.SendGridAPIKey, cfg.AlertFromName, cfg.AlertFromEmail))
	}
	senders = append(senders, notifications.LogSender{})
	names := make([]string, 0, len(senders))
	for _, s := range senders {
		names = append(names, s.Name())
	}
	telemetry.Info("bootstrap.senders", map[string]any{"senders": names})
	return senders
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "s3" {
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	}
	return localstore.New(cfg.LocalStoreDir), nil
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.AlertQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AlertQueueURL, cfg.AWSRegion)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
