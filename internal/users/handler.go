package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gradesync/internal/shared/server/middleware"
	"gradesync/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me/alert-email", h.setAlertEmail)
}

type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
	PictureURL string    `json:"picture_url"`
	AlertEmail string    `json:"alert_email"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		GivenName:  u.GivenName,
		FamilyName: u.FamilyName,
		PictureURL: u.PictureURL,
		AlertEmail: u.Recipient(),
		CreatedAt:  u.CreatedAt,
	}
}

func (h *Handler) me(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Valid token without a stored profile: answer from the token claims.
			respond.JSON(c, http.StatusOK, gin.H{"user": toResponse(User{
				ID:       userID,
				Email:    middleware.UserEmailFromContext(c),
				FullName: middleware.UserNameFromContext(c),
			})})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"user": toResponse(user)})
}

func (h *Handler) setAlertEmail(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	user, err := h.Svc.SetAlertEmail(c.Request.Context(), middleware.UserIDFromContext(c), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid email address", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update user", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"user": toResponse(user)})
}
