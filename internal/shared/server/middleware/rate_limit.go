package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"gradesync/internal/shared/server/respond"
)

// Rate limit groups used by the router.
const (
	GroupDefault = "DEFAULT"
	GroupWrite   = "WRITE"
	GroupUpload  = "UPLOAD"
	GroupAlert   = "ALERT"
)

// Rule is a token bucket: Rate tokens per second refilling up to Burst.
type Rule struct {
	Rate  float64
	Burst int
}

// PerMinute builds a rule allowing n requests per minute with a burst of n.
func PerMinute(n int) Rule {
	return Rule{Rate: float64(n) / 60.0, Burst: n}
}

// Limiter keeps one bucket per principal and group.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewLimiter(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{buckets: make(map[string]*bucket), now: now}
}

// Allow takes one token from key's bucket, returning how long to wait when empty.
func (l *Limiter) Allow(key string, rule Rule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(rule.Burst), b.tokens+elapsed*rule.Rate)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / rule.Rate
	return false, time.Duration(math.Ceil(wait*1000)) * time.Millisecond
}

// GroupForRequest classifies a request into a rate limit group by route and method.
func GroupForRequest(c *gin.Context) string {
	route := c.FullPath()
	switch {
	case strings.HasSuffix(route, "/syllabus"):
		return GroupUpload
	case strings.HasPrefix(route, "/api/v1/notifications/send-grade-alert"), strings.HasPrefix(route, "/api/v1/notifications/auto-check"):
		return GroupAlert
	case c.Request.Method != http.MethodGet:
		return GroupWrite
	default:
		return GroupDefault
	}
}

// RateLimit rejects requests over their group's rule with 429 and Retry-After.
// Groups without a rule are not limited.
func RateLimit(limiter *Limiter, rules map[string]Rule, groupFor func(*gin.Context) string) gin.HandlerFunc {
	if limiter == nil {
		limiter = NewLimiter(nil)
	}
	if groupFor == nil {
		groupFor = GroupForRequest
	}
	return func(c *gin.Context) {
		group := groupFor(c)
		rule, ok := rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := UserIDFromContext(c)
		if principal == "" {
			principal = c.ClientIP()
		}
		allowed, retryAfter := limiter.Allow(principal+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}
		retryMs := max(int(retryAfter/time.Millisecond), 1000)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(float64(retryMs)/1000))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests", map[string]any{
			"group":          group,
			"retry_after_ms": retryMs,
		})
	}
}
