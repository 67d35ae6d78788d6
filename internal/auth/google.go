// Package auth implements Google sign-in and issues session tokens for the API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "gradesync/internal/shared/auth"
	"gradesync/internal/shared/server/respond"
	"gradesync/internal/shared/telemetry"
	"gradesync/internal/users"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// UserStore persists the profile of a user who completed sign-in.
type UserStore interface {
	UpsertFromAuth(ctx context.Context, user users.User) error
}

// GoogleService runs the OAuth2 authorization code flow against Google.
type GoogleService struct {
	OAuth       *oauth2.Config
	UIRedirect  string
	UserInfoURL string
	Users       UserStore
	states      *stateStore
}

func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, store UserStore) *GoogleService {
	return &GoogleService{
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		UIRedirect:  uiRedirect,
		UserInfoURL: defaultUserInfoURL,
		Users:       store,
		states:      newStateStore(5 * time.Minute),
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.OAuth.ClientID != "" && s.OAuth.ClientSecret != "" && s.OAuth.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusServiceUnavailable, "auth_not_configured", "Google sign-in is not configured", nil)
		return
	}
	state := s.states.issue()
	c.Redirect(http.StatusFound, s.OAuth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")))
}

func (s *GoogleService) callback(c *gin.Context) {
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	if !s.states.consume(state) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.OAuth.Exchange(ctx, code)
	if err != nil {
		telemetry.Info("auth.exchange_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	user := profile.toUser()
	if s.Users != nil {
		if err := s.Users.UpsertFromAuth(ctx, user); err != nil {
			telemetry.Error("auth.user_upsert_failed", map[string]any{"user_id": user.ID, "error": err.Error()})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save user", nil)
			return
		}
	}

	jwt, err := sharedauth.SignJWT(sharedauth.Claims{Sub: user.ID, Email: user.Email, Name: user.FullName})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	target, err := appendToken(s.UIRedirect, jwt)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	telemetry.Info("auth.login", map[string]any{"user_id": user.ID})
	c.Redirect(http.StatusFound, target)
}

type googleProfile struct {
	Sub        string `json:"sub"`
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func (p googleProfile) toUser() users.User {
	return users.User{
		ID:         "google:" + p.Sub,
		Email:      strings.ToLower(p.Email),
		FullName:   p.Name,
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		PictureURL: p.Picture,
	}
}

func (s *GoogleService) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.UserInfoURL, nil)
	if err != nil {
		return googleProfile{}, err
	}
	resp, err := s.OAuth.Client(ctx, token).Do(req)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return googleProfile{}, err
	}
	if profile.Sub == "" {
		profile.Sub = profile.ID
	}
	if profile.Sub == "" || profile.Email == "" {
		return googleProfile{}, errors.New("userinfo missing sub or email")
	}
	return profile, nil
}

// stateStore holds issued OAuth states until they are consumed or expire.
type stateStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
	now   func() time.Time
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{ttl: ttl, items: make(map[string]time.Time), now: time.Now}
}

func (s *stateStore) issue() string {
	state := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = now.Add(s.ttl)
	return state
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[state]
	delete(s.items, state)
	return ok && !s.now().After(exp)
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
