package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	sharedauth "gradesync/internal/shared/auth"
	"gradesync/internal/users"
)

func newGoogleTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"42","email":"Ada@Example.com","name":"Ada Lovelace","given_name":"Ada","family_name":"Lovelace"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(svc *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestCallbackUpsertsUserAndRedirectsWithToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	srv := newGoogleTestServer(t)
	repo := users.NewMemoryRepo()
	svc := NewGoogleService("client", "secret", "http://localhost/callback", "http://ui.local/login", users.NewService(repo))
	svc.OAuth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	svc.UserInfoURL = srv.URL + "/userinfo"
	r := newTestRouter(svc)

	startResp := httptest.NewRecorder()
	r.ServeHTTP(startResp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if startResp.Code != http.StatusFound {
		t.Fatalf("start expected 302, got %d", startResp.Code)
	}
	loc, err := url.Parse(startResp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse start location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("expected state in %s", loc)
	}

	cbResp := httptest.NewRecorder()
	r.ServeHTTP(cbResp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=abc&state="+state, nil))
	if cbResp.Code != http.StatusFound {
		t.Fatalf("callback expected 302, got %d: %s", cbResp.Code, cbResp.Body.String())
	}
	redirect, err := url.Parse(cbResp.Header().Get("Location"))
	if err != nil || redirect.Host != "ui.local" {
		t.Fatalf("unexpected redirect %q: %v", cbResp.Header().Get("Location"), err)
	}
	claims, err := sharedauth.VerifyJWT(redirect.Query().Get("token"))
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "google:42" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	user, err := repo.GetByID(context.Background(), "google:42")
	if err != nil {
		t.Fatalf("expected stored user: %v", err)
	}
	if user.GivenName != "Ada" || user.FullName != "Ada Lovelace" {
		t.Fatalf("unexpected user: %+v", user)
	}

	replay := httptest.NewRecorder()
	r.ServeHTTP(replay, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=abc&state="+state, nil))
	if replay.Code != http.StatusBadRequest {
		t.Fatalf("replayed state expected 400, got %d", replay.Code)
	}
}

func TestStartRequiresConfiguration(t *testing.T) {
	r := newTestRouter(NewGoogleService("", "", "", "", nil))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestStateStoreExpiry(t *testing.T) {
	store := newStateStore(time.Minute)
	now := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	fresh := store.issue()
	if !store.consume(fresh) {
		t.Fatalf("expected fresh state to be accepted")
	}
	if store.consume(fresh) {
		t.Fatalf("expected state to be single use")
	}

	stale := store.issue()
	now = now.Add(2 * time.Minute)
	if store.consume(stale) {
		t.Fatalf("expected expired state to be rejected")
	}
}

func TestAppendTokenKeepsQuery(t *testing.T) {
	got, err := appendToken("http://ui.local/login?next=%2Fcourses", "abc")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if got != "http://ui.local/login?next=%2Fcourses&token=abc" {
		t.Fatalf("unexpected url %s", got)
	}
	if _, err := appendToken("", "abc"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}
