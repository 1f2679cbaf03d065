package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/medimatch-be/internal/api/middleware"
	"github.com/themobileprof/medimatch-be/internal/chat"
	"github.com/themobileprof/medimatch-be/internal/db"
	"github.com/themobileprof/medimatch-be/internal/usage"
)

// ChatHandler exposes the chat engine over REST
type ChatHandler struct {
	engine *chat.Engine
	db     *db.DB
	plans  *PlanService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(engine *chat.Engine, database *db.DB, plans *PlanService) *ChatHandler {
	return &ChatHandler{
		engine: engine,
		db:     database,
		plans:  plans,
	}
}

// MessageRequest represents one chat message from the client
type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// NewChat opens a new chat session
// POST /api/chat/new
func (h *ChatHandler) NewChat(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	p, err := h.plans.PlanFor(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve plan"})
		return
	}

	result, err := h.engine.NewChat(c.Request.Context(), userID, user.Language, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open chat"})
		return
	}
	if result.Denied {
		c.JSON(statusForReason(result.Reason), result)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// SendMessage processes one chat turn
// POST /api/chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A supplied session must exist and belong to the caller
	if req.SessionID != "" {
		session, err := h.db.GetSessionByID(c.Request.Context(), req.SessionID)
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}
		if session.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Session belongs to another user"})
			return
		}
	}

	user, err := h.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	p, err := h.plans.PlanFor(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve plan"})
		return
	}

	result, err := h.engine.ProcessMessage(c.Request.Context(), chat.TurnRequest{
		UserID:    userID,
		SessionID: req.SessionID,
		Message:   req.Message,
		Language:  user.Language,
		Plan:      p,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}
	if result.Denied {
		c.JSON(statusForReason(result.Reason), result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History returns the user's recent messages in chronological order.
// Gated by the chat_history plan feature.
// GET /api/chat/history
func (h *ChatHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	messages, err := h.db.GetRecentMessages(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// statusForReason maps a denial reason to an HTTP status
func statusForReason(reason usage.Reason) int {
	switch reason {
	case usage.ReasonDailyLimitExceeded, usage.ReasonChatResponseLimitExceeded:
		return http.StatusTooManyRequests
	case chat.ReasonLanguageNotEntitled:
		return http.StatusForbidden
	default:
		return http.StatusServiceUnavailable
	}
}
