package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/medimatch-be/internal/plan"
)

// PlanResolver looks up the plan a user is currently on.
type PlanResolver interface {
	PlanFor(ctx context.Context, userID string) (*plan.Plan, error)
}

// RequireFeature rejects requests from users whose plan does not grant a
// feature key. Must run after JWTAuth.
func RequireFeature(resolver PlanResolver, featureKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user id"})
			return
		}

		p, err := resolver.PlanFor(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "plan lookup failed"})
			return
		}
		if !p.HasFeature(featureKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "feature not available on your plan"})
			return
		}
		c.Next()
	}
}
