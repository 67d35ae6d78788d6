package notifications_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"gradesync/internal/bootstrap"
	"gradesync/internal/shared/config"
)

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "alert-guest")
}

func call(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestGradeAlertLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(config.Config{Env: "dev", LocalStoreDir: t.TempDir(), GradeThreshold: 70})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	router := app.Router

	resp := call(t, router, http.MethodPost, "/api/v1/courses", map[string]any{"course_code": "BIO 1", "course_name": "Biology", "target_grade": 95})
	var created struct {
		Course struct {
			ID string `json:"id"`
		} `json:"course"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil || created.Course.ID == "" {
		t.Fatalf("create course: %d %s", resp.Code, resp.Body.String())
	}
	base := "/api/v1/courses/" + created.Course.ID

	if resp := call(t, router, http.MethodPost, "/api/v1/notifications/send-grade-alert/"+created.Course.ID, nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("alert without weights expected 400, got %d", resp.Code)
	}

	call(t, router, http.MethodPost, base+"/weights", map[string]any{"category": "Homework", "weight": 100})
	resp = call(t, router, http.MethodPost, base+"/assignments", map[string]any{"name": "HW1", "category": "Homework", "max_points": 50})
	var assignment struct {
		Assignment struct {
			ID string `json:"id"`
		} `json:"assignment"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &assignment)
	call(t, router, http.MethodPost, "/api/v1/grades/assignment/"+assignment.Assignment.ID, map[string]any{"points_earned": 44})

	resp = call(t, router, http.MethodPost, "/api/v1/notifications/send-grade-alert/"+created.Course.ID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("send alert expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var sent struct {
		SentVia      []string `json:"sent_via"`
		Notification struct {
			Subject string `json:"subject"`
			Message string `json:"message"`
		} `json:"notification"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sent.SentVia) != 1 || sent.SentVia[0] != "log" {
		t.Fatalf("expected log delivery only, got %v", sent.SentVia)
	}
	if sent.Notification.Subject != "Grade Update for Biology" || sent.Notification.Message != "Current grade: 88% (B+)" {
		t.Fatalf("unexpected notification: %+v", sent.Notification)
	}

	resp = call(t, router, http.MethodPost, "/api/v1/notifications/auto-check", nil)
	var checked struct {
		Message string `json:"message"`
		Alerts  []struct {
			Grade  float64 `json:"grade"`
			Target float64 `json:"target"`
		} `json:"alerts"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &checked); err != nil {
		t.Fatalf("decode auto-check: %v", err)
	}
	if checked.Message != "Checked 1 courses, sent 1 alerts" || len(checked.Alerts) != 1 || checked.Alerts[0].Target != 95 {
		t.Fatalf("unexpected auto-check: %s", resp.Body.String())
	}

	resp = call(t, router, http.MethodGet, "/api/v1/notifications", nil)
	var listed struct {
		Notifications []struct {
			ID      string `json:"id"`
			Subject string `json:"subject"`
			IsRead  bool   `json:"is_read"`
		} `json:"notifications"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Notifications) != 2 || listed.Notifications[0].Subject != "Grade Alert: Biology" {
		t.Fatalf("expected newest first, got %s", resp.Body.String())
	}

	resp = call(t, router, http.MethodPut, "/api/v1/notifications/"+listed.Notifications[0].ID+"/read", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("mark read expected 200, got %d", resp.Code)
	}
	if resp := call(t, router, http.MethodPut, "/api/v1/notifications/missing/read", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("mark missing expected 404, got %d", resp.Code)
	}
}

func TestSendGradeAlertRejectsInvalidEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(config.Config{Env: "dev", LocalStoreDir: t.TempDir()})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	router := app.Router

	resp := call(t, router, http.MethodPost, "/api/v1/courses", map[string]any{"course_code": "ART 1", "course_name": "Drawing"})
	var created struct {
		Course struct {
			ID string `json:"id"`
		} `json:"course"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil || created.Course.ID == "" {
		t.Fatalf("create course: %d %s", resp.Code, resp.Body.String())
	}

	resp = call(t, router, http.MethodPost, "/api/v1/notifications/send-grade-alert/"+created.Course.ID, map[string]any{"email": "bad@@example"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" || body.Error.Message != "Invalid email address" {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}

	resp = call(t, router, http.MethodGet, "/api/v1/notifications", nil)
	if resp.Code != http.StatusOK || bytes.Contains(resp.Body.Bytes(), []byte("Grade Update")) {
		t.Fatalf("no notification expected: %d %s", resp.Code, resp.Body.String())
	}
}
