package httpapi

import (
	"errors"
	"net/http"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/agents"
	"crm-platform/internal/assignment"
	"crm-platform/internal/auth"
	"crm-platform/internal/callsession"
	"crm-platform/internal/feedback"
	"crm-platform/internal/importer"
	"crm-platform/internal/leads"
	"crm-platform/internal/reporting"
	"crm-platform/internal/storage"
	"crm-platform/internal/timeline"
	"crm-platform/pkg/logger"
	"crm-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Activity   *activity.Service
	Agents     *agents.Service
	Leads      *leads.Service
	Assignment *assignment.Service
	Calls      *callsession.Service
	Feedback   *feedback.Service
	Timeline   *timeline.Grouper
	Reporting  *reporting.Service
	Importer   *importer.Service
	Recordings *storage.Recordings

	// Redis backs the per-agent concurrent call cap.
	Redis              *redis.Client
	MaxConcurrentCalls int
}

// writeError maps service errors to HTTP statuses. Unknown errors become 500
// without leaking internals.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, leads.ErrNotFound),
		errors.Is(err, agents.ErrNotFound),
		errors.Is(err, callsession.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, assignment.ErrForbidden),
		errors.Is(err, callsession.ErrForbidden),
		errors.Is(err, feedback.ErrForbidden),
		errors.Is(err, auth.ErrNoActor):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, agents.ErrBadPassword):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, callsession.ErrAlreadyFinished):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, activity.ErrInvalidEntry),
		errors.Is(err, leads.ErrInvalidInput),
		errors.Is(err, leads.ErrDuplicateMobile),
		errors.Is(err, leads.ErrDuplicate),
		errors.Is(err, agents.ErrInvalidInput),
		errors.Is(err, agents.ErrDuplicate),
		errors.Is(err, assignment.ErrInvalidInput),
		errors.Is(err, assignment.ErrAgentInactive),
		errors.Is(err, callsession.ErrInvalidInput),
		errors.Is(err, feedback.ErrInvalidInput),
		errors.Is(err, timeline.ErrInvalidInput),
		errors.Is(err, reporting.ErrInvalidRequest),
		errors.Is(err, importer.ErrInvalidFile),
		errors.Is(err, importer.ErrMissingColumns),
		errors.Is(err, importer.ErrUnsupportedType),
		errors.Is(err, storage.ErrUnsupportedFormat),
		errors.Is(err, storage.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		logger.FromGin(c).Error("internal error", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func actor(c *gin.Context) (auth.Actor, bool) {
	a, err := auth.ActorFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return auth.Actor{}, false
	}
	return a, true
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates credentials and issues a JWT token pair.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	agent, err := h.Agents.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), agent.ID, agent.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"agent":         agent,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a fresh pair. The agent is
// re-read so a deactivation since login takes effect immediately.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	agent, err := h.Agents.Get(c.Request.Context(), claims.UserID)
	if err != nil || !agent.Active {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account unavailable"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), agent.ID, agent.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Me returns the authenticated identity.
func (h Handlers) Me(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	agent, err := h.Agents.Get(c.Request.Context(), a.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// callCapKey scopes the concurrent-call counter per agent.
func callCapKey(agentID string) string {
	return "callcap:agent:" + agentID
}

// acquireCallSlot enforces the per-agent concurrent call cap when Redis is
// wired; without Redis the cap is disabled.
func (h Handlers) acquireCallSlot(c *gin.Context, agentID string) (release func(), ok bool) {
	if h.Redis == nil || h.MaxConcurrentCalls <= 0 {
		return func() {}, true
	}
	acquired, err := utils.AcquireConcurrencyCap(c.Request.Context(), h.Redis, callCapKey(agentID), h.MaxConcurrentCalls, 2*time.Hour)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !acquired {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "concurrent call limit reached"})
		return nil, false
	}
	return func() {
		_ = utils.ReleaseConcurrencyCap(c.Request.Context(), h.Redis, callCapKey(agentID))
	}, true
}

func (h Handlers) releaseCallSlot(c *gin.Context, agentID string) {
	if h.Redis == nil || h.MaxConcurrentCalls <= 0 {
		return
	}
	_ = utils.ReleaseConcurrencyCap(c.Request.Context(), h.Redis, callCapKey(agentID))
}
