package subscription

import (
	"context"
	"errors"
	"strings"

	"gymledger/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrPlanNotFound  = errors.New("subscription plan not found")
	ErrInvalidPlan   = errors.New("plan name is required")
	ErrInvalidPrice  = errors.New("price must be greater than zero")
	ErrInvalidMonths = errors.New("months must be at least 1")
)

type Service interface {
	CreatePlan(ctx context.Context, gymID string, req CreatePlanRequest) (*Plan, error)
	ListPlans(ctx context.Context, gymID string) ([]*Plan, error)
	GetPlan(ctx context.Context, gymID, planID string) (*Plan, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreatePlan(ctx context.Context, gymID string, req CreatePlanRequest) (*Plan, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case gymID == "" || name == "":
		return nil, ErrInvalidPlan
	case req.Price == nil || !req.Price.IsPositive():
		return nil, ErrInvalidPrice
	case req.Months < 1:
		return nil, ErrInvalidMonths
	}

	p := &Plan{
		ID:     uuid.NewString(),
		GymID:  gymID,
		Name:   name,
		Price:  req.Price.Round(2),
		Months: req.Months,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.Infof("Plan created: gym=%s plan=%s price=%s months=%d", gymID, p.ID, p.Price.StringFixed(2), p.Months)
	return p, nil
}

func (s *service) ListPlans(ctx context.Context, gymID string) ([]*Plan, error) {
	plans, err := s.repo.ListByGym(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []*Plan{}
	}
	return plans, nil
}

func (s *service) GetPlan(ctx context.Context, gymID, planID string) (*Plan, error) {
	return s.repo.GetByID(ctx, gymID, planID)
}

// IsClientError reports whether err is a rejected plan definition.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPlan) || errors.Is(err, ErrInvalidPrice) || errors.Is(err, ErrInvalidMonths)
}
