// Package server assembles the gin engine: middleware, routes and the listen address.
package server

import (
	"github.com/gin-gonic/gin"

	googleauth "gradesync/internal/auth"
	"gradesync/internal/courses"
	"gradesync/internal/notifications"
	"gradesync/internal/services/health"
	"gradesync/internal/shared/config"
	"gradesync/internal/shared/metrics"
	"gradesync/internal/shared/server/middleware"
	"gradesync/internal/syllabus"
	"gradesync/internal/users"
)

// RouterDeps are the handlers mounted under /api/v1.
type RouterDeps struct {
	Config               config.Config
	Health               *health.Service
	GoogleAuth           *googleauth.GoogleService
	UserHandler          *users.Handler
	CourseHandler        *courses.Handler
	SyllabusHandler      *syllabus.Handler
	NotificationsHandler *notifications.Handler
	Limiter              *middleware.Limiter
}

// NewRouter builds the engine with middleware and every route registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth("/api/v1/health", "/api/v1/auth/google/", "/metrics"),
		middleware.RateLimit(deps.Limiter, rateLimitRules(deps.Config.RateLimitPerMin), nil),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health != nil {
		api.GET("/health", deps.Health.Handle)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.RegisterRoutes(api)
	}
	if deps.SyllabusHandler != nil {
		deps.SyllabusHandler.RegisterRoutes(api)
	}
	if deps.NotificationsHandler != nil {
		deps.NotificationsHandler.RegisterRoutes(api)
	}
	return r
}

// rateLimitRules derives per-group limits from the per-minute write budget. Zero disables limiting.
func rateLimitRules(perMinute int) map[string]middleware.Rule {
	if perMinute <= 0 {
		return nil
	}
	return map[string]middleware.Rule{
		middleware.GroupWrite:  middleware.PerMinute(perMinute),
		middleware.GroupUpload: middleware.PerMinute(max(perMinute/12, 5)),
		middleware.GroupAlert:  middleware.PerMinute(max(perMinute/6, 10)),
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
