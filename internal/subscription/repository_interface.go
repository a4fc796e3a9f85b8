package subscription

import "context"

type Repository interface {
	Create(ctx context.Context, p *Plan) error
	ListByGym(ctx context.Context, gymID string) ([]*Plan, error)
	GetByID(ctx context.Context, gymID, planID string) (*Plan, error)
}
