package ws

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/themobileprof/medimatch-be/internal/api"
	"github.com/themobileprof/medimatch-be/internal/api/middleware"
	"github.com/themobileprof/medimatch-be/internal/chat"
	"github.com/themobileprof/medimatch-be/internal/db"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// ChatHandler handles WebSocket chat connections over the shared engine
type ChatHandler struct {
	engine    *chat.Engine
	db        *db.DB
	plans     *api.PlanService
	jwtSecret string
}

// NewChatHandler creates a new WebSocket chat handler
func NewChatHandler(engine *chat.Engine, database *db.DB, plans *api.PlanService, jwtSecret string) *ChatHandler {
	return &ChatHandler{
		engine:    engine,
		db:        database,
		plans:     plans,
		jwtSecret: jwtSecret,
	}
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// OutgoingMessage represents a message to the client
type OutgoingMessage struct {
	Type string           `json:"type"` // "result", "denied", "error"
	Data *chat.TurnResult `json:"data,omitempty"`
	Text string           `json:"text,omitempty"`
}

// HandleChat upgrades the connection and runs the message loop
func (h *ChatHandler) HandleChat(c *gin.Context) {
	// Validate JWT from query parameter or header
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
		if strings.HasPrefix(token, "Bearer ") {
			token = strings.TrimPrefix(token, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}

	claims, err := middleware.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}
	defer conn.Close()

	user, err := h.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		log.Printf("ws: failed to get user %s: %v", userID, err)
		return
	}

	log.Printf("ws: connected user=%s language=%s", userID, user.Language)

	limiter := middleware.NewWebSocketLimiter(30)

	for {
		var msg IncomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			break
		}

		if !limiter.Allow() {
			h.send(conn, OutgoingMessage{Type: "error", Text: "Too many messages, slow down"})
			continue
		}

		p, err := h.plans.PlanFor(c.Request.Context(), userID)
		if err != nil {
			log.Printf("ws: plan lookup failed for user=%s: %v", userID, err)
			h.send(conn, OutgoingMessage{Type: "error", Text: "Temporarily unavailable"})
			continue
		}

		result, err := h.engine.ProcessMessage(c.Request.Context(), chat.TurnRequest{
			UserID:    userID,
			SessionID: msg.SessionID,
			Message:   msg.Content,
			Language:  user.Language,
			Plan:      p,
		})
		if err != nil {
			log.Printf("ws: turn failed for user=%s: %v", userID, err)
			h.send(conn, OutgoingMessage{Type: "error", Text: "Failed to process message"})
			continue
		}

		if result.Denied {
			h.send(conn, OutgoingMessage{Type: "denied", Data: result})
			continue
		}
		h.send(conn, OutgoingMessage{Type: "result", Data: result})
	}
}

func (h *ChatHandler) send(conn *websocket.Conn, msg OutgoingMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws: write error: %v", err)
	}
}
