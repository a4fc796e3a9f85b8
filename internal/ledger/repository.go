package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymledger/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// repository is the Postgres Store. Transactions run at SERIALIZABLE, so
// Postgres performs the read-set validation and reports conflicts as
// SQLSTATE 40001, which is surfaced as ErrTransactionConflict.
type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Store {
	return &repository{db: db}
}

func (r *repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return translate(err)
	}

	return translate(tx.Commit())
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if db.IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrTransactionConflict, err)
	}
	return err
}

func (r *repository) GetPlan(ctx context.Context, gymID, userID, planID string) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, selectPlan+` WHERE gym_id = $1 AND user_id = $2 AND plan_id = $3`,
		gymID, userID, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListPlans(ctx context.Context, gymID, userID string) ([]Plan, error) {
	plans := []Plan{}
	err := r.db.SelectContext(ctx, &plans, selectPlan+`
		WHERE gym_id = $1 AND user_id = $2
		ORDER BY purchased_at DESC`, gymID, userID)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) ListPayments(ctx context.Context, gymID, userID, planID string) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments, selectPayment+`
		WHERE gym_id = $1 AND user_id = $2 AND plan_id = $3
		ORDER BY date ASC, payment_id ASC`, gymID, userID, planID)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

const (
	selectMember = `SELECT gym_id, user_id, name, email, total_to_be_paid, total_paid, total_due FROM members`

	selectPlan = `SELECT gym_id, user_id, plan_id, subscription_plan_id, name, price, paid, due, months, purchased_at, expires_at FROM member_plans`

	selectPayment = `SELECT gym_id, user_id, plan_id, payment_id, paid_amount, date, added_by FROM payments`
)

type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) GetMember(ctx context.Context, gymID, userID string) (*Member, error) {
	var m Member
	err := t.tx.GetContext(ctx, &m, selectMember+` WHERE gym_id = $1 AND user_id = $2`, gymID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *pgTx) GetPlan(ctx context.Context, gymID, userID, planID string) (*Plan, error) {
	var p Plan
	err := t.tx.GetContext(ctx, &p, selectPlan+` WHERE gym_id = $1 AND user_id = $2 AND plan_id = $3`,
		gymID, userID, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) GetPayment(ctx context.Context, gymID, userID, planID, paymentID string) (*Payment, error) {
	var p Payment
	err := t.tx.GetContext(ctx, &p, selectPayment+` WHERE gym_id = $1 AND user_id = $2 AND plan_id = $3 AND payment_id = $4`,
		gymID, userID, planID, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) InsertMember(ctx context.Context, m Member, profile MemberProfile) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO members (gym_id, user_id, name, email, gender, dob, address, phone, training_type, notes, created_by, joined_at, total_to_be_paid, total_paid, total_due)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.GymID, m.UserID, profile.Name, profile.Email, profile.Gender, profile.DOB, profile.Address,
		profile.Phone, profile.TrainingType, profile.Notes, profile.CreatedBy, profile.JoinedAt,
		m.TotalToBePaid, m.TotalPaid, m.TotalDue,
	)
	return err
}

func (t *pgTx) InsertPlan(ctx context.Context, p Plan) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO member_plans (gym_id, user_id, plan_id, subscription_plan_id, name, price, paid, due, months, purchased_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.GymID, p.UserID, p.PlanID, p.SubscriptionPlanID, p.Name, p.Price, p.Paid, p.Due,
		p.Months, p.PurchasedAt, p.ExpiresAt,
	)
	return err
}

func (t *pgTx) InsertPayment(ctx context.Context, p Payment) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO payments (gym_id, user_id, plan_id, payment_id, paid_amount, date, added_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.GymID, p.UserID, p.PlanID, p.PaymentID, p.PaidAmount, p.Date, p.AddedBy,
	)
	return err
}

func (t *pgTx) UpdateMemberTotals(ctx context.Context, gymID, userID string, totalPaid, totalDue decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE members
		SET total_paid = $1, total_due = $2, updated_at = NOW()
		WHERE gym_id = $3 AND user_id = $4`,
		totalPaid, totalDue, gymID, userID,
	)
	return expectOneRow(res, err)
}

func (t *pgTx) UpdatePlanBalance(ctx context.Context, gymID, userID, planID string, paid, due decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE member_plans
		SET paid = $1, due = $2
		WHERE gym_id = $3 AND user_id = $4 AND plan_id = $5`,
		paid, due, gymID, userID, planID,
	)
	return expectOneRow(res, err)
}

func (t *pgTx) DeletePayment(ctx context.Context, gymID, userID, planID, paymentID string) error {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM payments
		WHERE gym_id = $1 AND user_id = $2 AND plan_id = $3 AND payment_id = $4`,
		gymID, userID, planID, paymentID,
	)
	return expectOneRow(res, err)
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrDocumentNotFoundOrMissingFields
	}
	return nil
}
