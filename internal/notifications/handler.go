package notifications

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gradesync/internal/courses"
	"gradesync/internal/grades"
	"gradesync/internal/shared/server/middleware"
	"gradesync/internal/shared/server/respond"
	"gradesync/internal/users"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.list)
	rg.PUT("/notifications/:notificationId/read", h.markRead)
	rg.POST("/notifications/send-grade-alert/:courseId", h.sendGradeAlert)
	rg.POST("/notifications/auto-check", h.autoCheck)
}

type notificationResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CourseID         *string   `json:"course_id"`
	NotificationType string    `json:"notification_type"`
	Subject          string    `json:"subject"`
	Message          string    `json:"message"`
	SentVia          []string  `json:"sent_via"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

type checkedAlertResponse struct {
	CourseID string   `json:"course_id"`
	Course   string   `json:"course"`
	Grade    float64  `json:"grade"`
	Target   float64  `json:"target"`
	SentVia  []string `json:"sent_via"`
}

func toResponse(n Notification) notificationResponse {
	resp := notificationResponse{
		ID:               n.ID,
		UserID:           n.UserID,
		NotificationType: n.Type,
		Subject:          n.Subject,
		Message:          n.Message,
		SentVia:          n.SentVia,
		IsRead:           n.IsRead,
		CreatedAt:        n.CreatedAt,
	}
	if resp.SentVia == nil {
		resp.SentVia = []string{}
	}
	if n.CourseID != "" {
		id := n.CourseID
		resp.CourseID = &id
	}
	return resp
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list notifications", nil)
		return
	}
	resp := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, toResponse(n))
	}
	respond.JSON(c, http.StatusOK, gin.H{"notifications": resp})
}

func (h *Handler) markRead(c *gin.Context) {
	n, err := h.Svc.MarkRead(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("notificationId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Notification not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update notification", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"message":      "Notification marked as read",
		"notification": toResponse(n),
	})
}

type sendAlertRequest struct {
	Email string `json:"email"`
}

func (h *Handler) sendGradeAlert(c *gin.Context) {
	var req sendAlertRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
			return
		}
	}
	outcome, err := h.Svc.SendGradeAlert(
		c.Request.Context(),
		middleware.UserIDFromContext(c),
		c.Param("courseId"),
		req.Email,
		middleware.RequestIDFromContext(c),
	)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidEmail):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid email address", nil)
			return
		case errors.Is(err, ErrDeliveryFailed):
			respond.Error(c, http.StatusInternalServerError, "delivery_failed", "Failed to send notification via any service", nil)
			return
		}
		courses.WriteError(c, err, "failed to send grade alert")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"message":      "Grade alert sent successfully",
		"sent_via":     outcome.SentVia,
		"grade_data":   outcome.Result,
		"notification": toResponse(outcome.Notification),
	})
}

func (h *Handler) autoCheck(c *gin.Context) {
	result, err := h.Svc.AutoCheck(c.Request.Context(), middleware.UserIDFromContext(c), middleware.RequestIDFromContext(c))
	if err != nil {
		courses.WriteError(c, err, "failed to check grades")
		return
	}
	alerts := make([]checkedAlertResponse, 0, len(result.Alerts))
	for _, a := range result.Alerts {
		alerts = append(alerts, checkedAlertResponse{
			CourseID: a.CourseID,
			Course:   a.CourseName,
			Grade:    grades.Round2(a.Grade),
			Target:   a.Target,
			SentVia:  a.SentVia,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("Checked %d courses, sent %d alerts", result.Checked, len(alerts)),
		"alerts":  alerts,
	})
}
