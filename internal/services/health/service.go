// Package health reports whether the API and its dependencies are reachable.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gradesync/internal/shared/server/respond"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service checks the database when one is configured.
type Service struct {
	DB      Pinger
	Storage string
	Timeout time.Duration
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
}

func NewService(db Pinger, storage string) *Service {
	return &Service{DB: db, Storage: storage, Timeout: 2 * time.Second}
}

// Check pings the database. Without one the repos are in memory and the service is healthy.
func (s *Service) Check(ctx context.Context) Status {
	status := Status{OK: true, Database: "memory", Storage: s.Storage}
	if s.DB == nil {
		return status
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		status.OK = false
		status.Database = "unreachable"
		return status
	}
	status.Database = "ok"
	return status
}

func (s *Service) Handle(c *gin.Context) {
	status := s.Check(c.Request.Context())
	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(c, code, status)
}
