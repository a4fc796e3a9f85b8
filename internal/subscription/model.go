package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a catalog entry a member can be enrolled on. Enrollment copies
// price and months into the member's own plan instance, so editing the
// catalog never rewrites existing balances.
type Plan struct {
	ID        string          `db:"id" json:"id"`
	GymID     string          `db:"gym_id" json:"gymId"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Months    int             `db:"months" json:"months"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

type CreatePlanRequest struct {
	Name   string           `json:"name" binding:"required,max=100"`
	Price  *decimal.Decimal `json:"price" binding:"required"`
	Months int              `json:"months" binding:"required,min=1,max=120"`
}
