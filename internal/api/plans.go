package api

import (
	"context"
	"fmt"
	"log"

	"github.com/themobileprof/medimatch-be/internal/db"
	"github.com/themobileprof/medimatch-be/internal/plan"
)

// PlanService resolves users to their plan tier. It backs both the
// feature-gate middleware and the handlers that need entitlements.
type PlanService struct {
	db       *db.DB
	registry *plan.Registry
}

// NewPlanService creates a plan service over the user store and the
// plan registry.
func NewPlanService(database *db.DB, registry *plan.Registry) *PlanService {
	return &PlanService{db: database, registry: registry}
}

// PlanFor returns the plan the user is currently on. A user record
// pointing at a plan key that no longer exists falls back to the default
// tier rather than locking the user out.
func (s *PlanService) PlanFor(ctx context.Context, userID string) (*plan.Plan, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	p, ok := s.registry.Get(user.PlanKey)
	if !ok {
		log.Printf("plans: user %s has unknown plan key %q, using default", userID, user.PlanKey)
		return s.registry.Default(), nil
	}
	return p, nil
}

// Registry exposes the underlying plan registry.
func (s *PlanService) Registry() *plan.Registry {
	return s.registry
}
