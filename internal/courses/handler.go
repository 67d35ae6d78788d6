package courses

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gradesync/internal/shared/server/middleware"
	"gradesync/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the courses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches course, assignment and grade routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/courses", h.listCourses)
	rg.POST("/courses", h.createCourse)
	rg.POST("/courses/import-synthetic", h.importSynthetic)
	rg.GET("/courses/:courseId", h.getCourse)
	rg.PUT("/courses/:courseId", h.updateCourse)
	rg.DELETE("/courses/:courseId", h.deleteCourse)
	rg.POST("/courses/:courseId/sync", h.syncCourse)
	rg.GET("/courses/:courseId/calculate", h.calculate)
	rg.GET("/courses/:courseId/grade-needed", h.gradeNeeded)
	rg.POST("/courses/:courseId/weights", h.saveWeight)
	rg.DELETE("/courses/:courseId/weights/:weightId", h.deleteWeight)
	rg.POST("/courses/:courseId/assignments", h.addAssignment)
	rg.DELETE("/courses/:courseId/assignments/:assignmentId", h.deleteAssignment)

	rg.POST("/grades/assignment/:assignmentId", h.saveGrade)
	rg.GET("/grades/assignment/:assignmentId", h.getGrade)
	rg.DELETE("/grades/assignment/:assignmentId", h.deleteGrade)
	rg.GET("/grades/course/:courseId", h.listCourseGrades)
}

func (h *Handler) listCourses(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	courses, err := h.Svc.ListCourses(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list courses", nil)
		return
	}
	resp := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, toCourseResponse(course))
	}
	respond.JSON(c, http.StatusOK, gin.H{"courses": resp})
}

func (h *Handler) createCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	course, err := h.Svc.CreateCourse(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		CourseCode:          req.CourseCode,
		CourseName:          req.CourseName,
		Semester:            req.Semester,
		Year:                req.Year,
		BrightspaceCourseID: req.BrightspaceCourseID,
		TargetGrade:         req.TargetGrade,
	})
	if err != nil {
		WriteError(c, err, "failed to create course")
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{
		"message": "Course created successfully",
		"course":  toCourseResponse(course),
	})
}

func (h *Handler) getCourse(c *gin.Context) {
	course, err := h.Svc.GetCourse(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"))
	if err != nil {
		WriteError(c, err, "failed to fetch course")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"course": toCourseResponse(course)})
}

func (h *Handler) updateCourse(c *gin.Context) {
	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	course, err := h.Svc.UpdateCourse(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"), CoursePatch{
		CourseCode:  req.CourseCode,
		CourseName:  req.CourseName,
		Semester:    req.Semester,
		Year:        req.Year,
		TargetGrade: req.TargetGrade,
	})
	if err != nil {
		WriteError(c, err, "failed to update course")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"message": "Course updated successfully",
		"course":  toCourseResponse(course),
	})
}

func (h *Handler) deleteCourse(c *gin.Context) {
	if err := h.Svc.DeleteCourse(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId")); err != nil {
		WriteError(c, err, "failed to delete course")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"message": "Course deleted successfully"})
}

func (h *Handler) importSynthetic(c *gin.Context) {
	imported, err := h.Svc.ImportBrightspace(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		WriteError(c, err, "failed to import courses")
		return
	}
	resp := make([]CourseResponse, 0, len(imported))
	for _, course := range imported {
		resp = append(resp, toCourseResponse(course))
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("Imported %d synthetic courses", len(imported)),
		"courses": resp,
	})
}

func (h *Handler) syncCourse(c *gin.Context) {
	created, course, err := h.Svc.SyncBrightspace(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"))
	if err != nil {
		WriteError(c, err, "failed to sync course")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("Synced %d assignments from Brightspace", created),
		"course":  toCourseResponse(course),
	})
}

// calculate returns the engine result as-is; a weights problem is reported in its error field.
func (h *Handler) calculate(c *gin.Context) {
	_, result, err := h.Svc.Calculate(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"))
	if err != nil {
		WriteError(c, err, "failed to calculate grade")
		return
	}
	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) gradeNeeded(c *gin.Context) {
	var target *float64
	if raw := strings.TrimSpace(c.Query("target")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "target must be a number", nil)
			return
		}
		target = &v
	}
	result, err := h.Svc.GradeNeeded(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"), target)
	if err != nil {
		WriteError(c, err, "failed to calculate grade needed")
		return
	}
	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) saveWeight(c *gin.Context) {
	var req weightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	weight, err := h.Svc.SaveWeight(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"), req.Category, req.Weight, req.Description)
	if err != nil {
		WriteError(c, err, "failed to save weight")
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{
		"message": "Syllabus weight saved successfully",
		"weight":  toWeightResponse(weight),
	})
}

func (h *Handler) deleteWeight(c *gin.Context) {
	err := h.Svc.DeleteWeight(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"), c.Param("weightId"))
	if err != nil {
		WriteError(c, err, "failed to delete weight")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"message": "Weight deleted successfully"})
}

func (h *Handler) addAssignment(c *gin.Context) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	assignment, err := h.Svc.AddAssignment(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"), AssignmentInput{
		Name:        req.Name,
		Category:    req.Category,
		MaxPoints:   req.MaxPoints,
		DueDate:     req.DueDate,
		Description: req.Description,
	})
	if err != nil {
		WriteError(c, err, "failed to add assignment")
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{
		"message":    "Assignment added successfully",
		"assignment": toAssignmentResponse(assignment),
	})
}

func (h *Handler) deleteAssignment(c *gin.Context) {
	err := h.Svc.DeleteAssignment(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"), c.Param("assignmentId"))
	if err != nil {
		WriteError(c, err, "failed to delete assignment")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"message": "Assignment deleted successfully"})
}

func (h *Handler) saveGrade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	if req.PointsEarned == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "points_earned is required", nil)
		return
	}
	grade, err := h.Svc.SaveGrade(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("assignmentId"), GradeInput{
		PointsEarned: *req.PointsEarned,
		LetterGrade:  req.LetterGrade,
		Feedback:     req.Feedback,
		GradedDate:   req.GradedDate,
	})
	if err != nil {
		WriteError(c, err, "failed to save grade")
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{
		"message": "Grade saved successfully",
		"grade":   toGradeResponse(grade),
	})
}

func (h *Handler) getGrade(c *gin.Context) {
	grade, err := h.Svc.GetGrade(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("assignmentId"))
	if err != nil {
		WriteError(c, err, "failed to fetch grade")
		return
	}
	respond.JSON(c, http.StatusOK, toGradeResponse(grade))
}

func (h *Handler) deleteGrade(c *gin.Context) {
	if err := h.Svc.DeleteGrade(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("assignmentId")); err != nil {
		WriteError(c, err, "failed to delete grade")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"message": "Grade deleted successfully"})
}

func (h *Handler) listCourseGrades(c *gin.Context) {
	entries, err := h.Svc.ListCourseGrades(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("courseId"))
	if err != nil {
		WriteError(c, err, "failed to list grades")
		return
	}
	resp := make([]GradeWithAssignmentResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toGradeWithAssignment(entry))
	}
	respond.JSON(c, http.StatusOK, resp)
}

// WriteError maps course errors onto the error envelope. Unknown errors become a 500 with fallback.
func WriteError(c *gin.Context, err error, fallback string) {
	var validationErr *ValidationError
	var weightsErr *WeightsError
	switch {
	case errors.As(err, &validationErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", validationErr.Message, nil)
	case errors.As(err, &weightsErr):
		respond.Error(c, http.StatusBadRequest, "invalid_weights", weightsErr.Message, nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Course not found", nil)
	case errors.Is(err, ErrAssignmentNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Assignment not found", nil)
	case errors.Is(err, ErrWeightNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Weight not found", nil)
	case errors.Is(err, ErrGradeNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "No grade found for this assignment", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
