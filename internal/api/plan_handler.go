package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/medimatch-be/internal/api/middleware"
	"github.com/themobileprof/medimatch-be/internal/db"
	"github.com/themobileprof/medimatch-be/internal/plan"
	"github.com/themobileprof/medimatch-be/internal/usage"
)

// PlanHandler handles plan, language and usage endpoints
type PlanHandler struct {
	db    *db.DB
	plans *PlanService
	gate  *usage.Gate
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(database *db.DB, plans *PlanService, gate *usage.Gate) *PlanHandler {
	return &PlanHandler{
		db:    database,
		plans: plans,
		gate:  gate,
	}
}

// PlanView is the pricing-page representation of a tier
type PlanView struct {
	Key                 string     `json:"key"`
	Name                string     `json:"name"`
	Price               string     `json:"price"`
	MaxChatsPerDay      plan.Limit `json:"max_chats_per_day"`
	MaxResponsesPerChat plan.Limit `json:"max_responses_per_chat"`
	Languages           []string   `json:"languages"`
	MedicineDepth       string     `json:"medicine_depth"`
	Features            []string   `json:"features"`
	Layout              string     `json:"layout"`
}

// ListPlans returns all plan tiers ordered by rank
// GET /api/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	tiers := h.plans.Registry().List()
	views := make([]PlanView, 0, len(tiers))
	for _, p := range tiers {
		views = append(views, PlanView{
			Key:                 p.Key,
			Name:                p.Name,
			Price:               p.Price,
			MaxChatsPerDay:      p.MaxChatsPerDay,
			MaxResponsesPerChat: p.MaxResponsesPerChat,
			Languages:           p.Languages,
			MedicineDepth:       string(p.MedicineDepth),
			Features:            p.Features,
			Layout:              p.Layout,
		})
	}

	c.JSON(http.StatusOK, gin.H{"plans": views})
}

// SwitchPlanRequest selects a new plan tier
type SwitchPlanRequest struct {
	PlanKey string `json:"plan_key" binding:"required"`
}

// SwitchPlan moves the user to a different tier. If the user's preferred
// language is not available on the new tier, it resets to English rather
// than leaving the account in a state every chat request would reject.
// POST /api/plans/switch
func (h *PlanHandler) SwitchPlan(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SwitchPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newPlan, ok := h.plans.Registry().Get(req.PlanKey)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.UpdateUserPlan(c.Request.Context(), userID, newPlan.Key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to switch plan"})
		return
	}

	language := user.Language
	if !newPlan.AllowsLanguage(language) {
		language = "en"
		if err := h.db.UpdateUserLanguage(c.Request.Context(), userID, language); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset language"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":     newPlan.Key,
		"language": language,
	})
}

// SwitchLanguageRequest selects a new preferred language
type SwitchLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// SwitchLanguage changes the user's preferred chat language, which must
// be allowed on the user's current plan.
// POST /api/language/switch
func (h *PlanHandler) SwitchLanguage(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SwitchLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.plans.PlanFor(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve plan"})
		return
	}

	if !p.AllowsLanguage(req.Language) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Language not available on the " + p.Name + " plan",
			"languages": p.Languages,
		})
		return
	}

	if err := h.db.UpdateUserLanguage(c.Request.Context(), userID, req.Language); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to switch language"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"language": req.Language})
}

// UsageStats returns today's chat usage against the plan limits
// GET /api/usage/stats
func (h *PlanHandler) UsageStats(c *gin.Context) {
	userID := middleware.GetUserID(c)

	p, err := h.plans.PlanFor(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve plan"})
		return
	}

	chatsToday, err := h.gate.ChatsToday(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":                   p.Key,
		"date":                   usage.Today(),
		"chats_today":            chatsToday,
		"max_chats_per_day":      p.MaxChatsPerDay,
		"max_responses_per_chat": p.MaxResponsesPerChat,
	})
}
