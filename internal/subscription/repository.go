package subscription

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Plan) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO subscription_plans (id, gym_id, name, price, months)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.GymID, p.Name, p.Price, p.Months).Scan(&p.CreatedAt)
}

func (r *repository) ListByGym(ctx context.Context, gymID string) ([]*Plan, error) {
	var plans []*Plan
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, gym_id, name, price, months, created_at
		FROM subscription_plans
		WHERE gym_id = $1
		ORDER BY months ASC, price ASC
	`, gymID)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) GetByID(ctx context.Context, gymID, planID string) (*Plan, error) {
	p := &Plan{}
	err := r.db.GetContext(ctx, p, `
		SELECT id, gym_id, name, price, months, created_at
		FROM subscription_plans
		WHERE gym_id = $1 AND id = $2
	`, gymID, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
