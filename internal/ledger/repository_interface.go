package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx is the set of record operations available inside one atomic unit.
// Getters return ErrDocumentNotFoundOrMissingFields when the record is absent.
type Tx interface {
	GetMember(ctx context.Context, gymID, userID string) (*Member, error)
	GetPlan(ctx context.Context, gymID, userID, planID string) (*Plan, error)
	GetPayment(ctx context.Context, gymID, userID, planID, paymentID string) (*Payment, error)

	InsertMember(ctx context.Context, m Member, profile MemberProfile) error
	InsertPlan(ctx context.Context, p Plan) error
	InsertPayment(ctx context.Context, p Payment) error

	UpdateMemberTotals(ctx context.Context, gymID, userID string, totalPaid, totalDue decimal.Decimal) error
	UpdatePlanBalance(ctx context.Context, gymID, userID, planID string, paid, due decimal.Decimal) error
	DeletePayment(ctx context.Context, gymID, userID, planID, paymentID string) error
}

// Store provides optimistic transactions over the gym → member → plan →
// payment hierarchy. RunInTx makes a single attempt: if another commit
// touched anything fn read, it returns ErrTransactionConflict and none of
// fn's writes become visible.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetPlan(ctx context.Context, gymID, userID, planID string) (*Plan, error)
	ListPlans(ctx context.Context, gymID, userID string) ([]Plan, error)
	ListPayments(ctx context.Context, gymID, userID, planID string) ([]Payment, error)
}
