package syllabus

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gradesync/internal/courses"
	"gradesync/internal/grades"
	"gradesync/internal/shared/server/middleware"
	"gradesync/internal/shared/server/respond"
)

// Handler wires the syllabus upload route.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/courses/:courseId/syllabus", h.upload)
}

type importResponse struct {
	FileKey         string                   `json:"file_key"`
	Weights         []grades.CategoryWeight  `json:"weights"`
	Total           float64                  `json:"total"`
	SumsTo100       bool                     `json:"sums_to_100"`
	Applied         bool                     `json:"applied"`
	SyllabusWeights []courses.WeightResponse `json:"syllabus_weights,omitempty"`
	Message         string                   `json:"message"`
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.maxBytes()+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	apply := false
	if raw := c.DefaultPostForm("apply", c.Query("apply")); raw != "" {
		apply, err = strconv.ParseBool(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "apply must be a boolean", nil)
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	result, err := h.Svc.Import(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"), fileHeader.Filename, file, apply)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_type", "Syllabus must be a PDF or plain text file", nil)
		case errors.Is(err, ErrTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "Syllabus file is too large", nil)
		case errors.Is(err, ErrNoWeights):
			respond.Error(c, http.StatusUnprocessableEntity, "no_weights", "No grade weights found in syllabus", nil)
		default:
			courses.WriteError(c, err, "failed to import syllabus")
		}
		return
	}

	resp := importResponse{
		FileKey:   result.FileKey,
		Weights:   result.Weights,
		Total:     result.Total,
		SumsTo100: result.Valid,
		Applied:   result.Applied,
		Message:   fmt.Sprintf("Found %d weighted categories totalling %s%%", len(result.Weights), strconv.FormatFloat(result.Total, 'f', -1, 64)),
	}
	if result.Applied {
		resp.SyllabusWeights = courses.ToWeightResponses(result.Stored)
	}
	respond.JSON(c, http.StatusOK, resp)
}
