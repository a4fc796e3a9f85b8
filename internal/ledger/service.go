package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymledger/internal/logger"
	"gymledger/internal/metrics"
	"gymledger/internal/timeutil"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	opAddPayment    = "add_payment"
	opDeletePayment = "delete_payment"
	opEnroll        = "enroll"
)

// ReceiptSender is notified after a payment has been committed. Delivery
// failures are logged and never change the ledger result.
type ReceiptSender interface {
	SendPaymentReceipt(ctx context.Context, email, name, amount, due string, when time.Time) error
}

type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 20 * time.Millisecond}
}

// Service is the only writer of member totals, plan balances and payment
// entries.
type Service interface {
	Enroll(ctx context.Context, in EnrollInput) (*EnrollResult, error)
	AddPayment(ctx context.Context, in AddPaymentInput) (*AddPaymentResult, error)
	DeletePayment(ctx context.Context, in DeletePaymentInput) error

	GetPlan(ctx context.Context, gymID, userID, planID string) (*Plan, error)
	ListPlans(ctx context.Context, gymID, userID string) ([]Plan, error)
	ListPayments(ctx context.Context, gymID, userID, planID string) ([]Payment, error)
}

type service struct {
	store    Store
	receipts ReceiptSender
	policy   RetryPolicy
	newID    func() string
}

func NewService(store Store, receipts ReceiptSender, policy RetryPolicy) Service {
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 1
	}
	return &service{
		store:    store,
		receipts: receipts,
		policy:   policy,
		newID:    uuid.NewString,
	}
}

func (s *service) AddPayment(ctx context.Context, in AddPaymentInput) (*AddPaymentResult, error) {
	if !in.Amount.IsPositive() {
		metrics.RecordLedgerOperation(opAddPayment, "rejected", 0)
		return nil, ErrInvalidAmount
	}
	addedBy := strings.TrimSpace(in.AddedBy)
	if err := requireIDs(in.GymID, in.UserID, in.PlanID); err != nil || addedBy == "" || in.Date.IsZero() {
		metrics.RecordLedgerOperation(opAddPayment, "rejected", 0)
		return nil, fmt.Errorf("%w: gymId, userId, planId, date and addedBy are required", ErrInvalidInput)
	}
	if !isCents(in.Amount) {
		metrics.RecordLedgerOperation(opAddPayment, "rejected", 0)
		return nil, errSubCent
	}
	if !timeutil.InRange(in.Date) {
		metrics.RecordLedgerOperation(opAddPayment, "rejected", 0)
		return nil, fmt.Errorf("%w: date must fall within years 0001-9999", ErrInvalidInput)
	}

	payment := Payment{
		GymID:      in.GymID,
		UserID:     in.UserID,
		PlanID:     in.PlanID,
		PaymentID:  s.newID(),
		PaidAmount: validDecimal(in.Amount),
		Date:       in.Date.UTC(),
		AddedBy:    addedBy,
	}

	var (
		member  Member
		planDue decimal.Decimal
	)
	err := s.run(ctx, opAddPayment, func(ctx context.Context, tx Tx) error {
		m, err := tx.GetMember(ctx, in.GymID, in.UserID)
		if err != nil {
			return err
		}
		p, err := tx.GetPlan(ctx, in.GymID, in.UserID, in.PlanID)
		if err != nil {
			return err
		}
		if !m.TotalPaid.Valid || !m.TotalDue.Valid || !p.Paid.Valid || !p.Due.Valid {
			return ErrDocumentNotFoundOrMissingFields
		}
		if in.Amount.GreaterThan(p.Due.Decimal) {
			return ErrAmountExceedsDue
		}

		totalPaid := m.TotalPaid.Decimal.Add(in.Amount)
		totalDue := m.TotalDue.Decimal.Sub(in.Amount)
		paid := p.Paid.Decimal.Add(in.Amount)
		due := p.Due.Decimal.Sub(in.Amount)

		if err := tx.UpdateMemberTotals(ctx, in.GymID, in.UserID, totalPaid, totalDue); err != nil {
			return err
		}
		if err := tx.UpdatePlanBalance(ctx, in.GymID, in.UserID, in.PlanID, paid, due); err != nil {
			return err
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		member = *m
		planDue = due
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCollected(in.Amount.InexactFloat64())
	s.sendReceipt(ctx, member, in.Amount, planDue, payment.Date)

	return &AddPaymentResult{
		PaymentID:  payment.PaymentID,
		PaidAmount: in.Amount,
		Date:       payment.Date,
		AddedBy:    payment.AddedBy,
		UserID:     in.UserID,
		PlanID:     in.PlanID,
	}, nil
}

func (s *service) DeletePayment(ctx context.Context, in DeletePaymentInput) error {
	if err := requireIDs(in.GymID, in.UserID, in.PlanID, in.PaymentID); err != nil {
		metrics.RecordLedgerOperation(opDeletePayment, "rejected", 0)
		return err
	}

	var amount decimal.Decimal
	err := s.run(ctx, opDeletePayment, func(ctx context.Context, tx Tx) error {
		m, err := tx.GetMember(ctx, in.GymID, in.UserID)
		if err != nil {
			return err
		}
		p, err := tx.GetPlan(ctx, in.GymID, in.UserID, in.PlanID)
		if err != nil {
			return err
		}
		pay, err := tx.GetPayment(ctx, in.GymID, in.UserID, in.PlanID, in.PaymentID)
		if err != nil {
			return err
		}
		if !m.TotalPaid.Valid || !m.TotalDue.Valid || !p.Paid.Valid || !p.Due.Valid || !pay.PaidAmount.Valid {
			return ErrDocumentNotFoundOrMissingFields
		}

		a := pay.PaidAmount.Decimal
		if err := tx.UpdateMemberTotals(ctx, in.GymID, in.UserID, m.TotalPaid.Decimal.Sub(a), m.TotalDue.Decimal.Add(a)); err != nil {
			return err
		}
		if err := tx.UpdatePlanBalance(ctx, in.GymID, in.UserID, in.PlanID, p.Paid.Decimal.Sub(a), p.Due.Decimal.Add(a)); err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, in.GymID, in.UserID, in.PlanID, in.PaymentID); err != nil {
			return err
		}

		amount = a
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordRefunded(amount.InexactFloat64())
	return nil
}

// Enroll creates the member, its first plan instance and, when something was
// paid up front, the opening payment entry in a single transaction.
func (s *service) Enroll(ctx context.Context, in EnrollInput) (*EnrollResult, error) {
	if err := validateEnroll(in); err != nil {
		metrics.RecordLedgerOperation(opEnroll, "rejected", 0)
		return nil, err
	}

	joinedAt := in.Profile.JoinedAt.UTC()
	profile := in.Profile
	profile.JoinedAt = joinedAt
	profile.CreatedBy = strings.TrimSpace(profile.CreatedBy)

	userID := s.newID()
	member := Member{
		GymID:         in.GymID,
		UserID:        userID,
		Name:          profile.Name,
		Email:         profile.Email,
		TotalToBePaid: in.Price,
		TotalPaid:     validDecimal(in.PaidAmount),
		TotalDue:      validDecimal(in.Price.Sub(in.PaidAmount)),
	}
	plan := Plan{
		GymID:              in.GymID,
		UserID:             userID,
		PlanID:             s.newID(),
		SubscriptionPlanID: in.SubscriptionPlanID,
		Name:               in.PlanName,
		Price:              in.Price,
		Paid:               validDecimal(in.PaidAmount),
		Due:                validDecimal(in.Price.Sub(in.PaidAmount)),
		Months:             in.Months,
		PurchasedAt:        joinedAt,
		ExpiresAt:          timeutil.AddMonths(joinedAt, in.Months),
	}

	var payment *Payment
	if in.PaidAmount.IsPositive() {
		payment = &Payment{
			GymID:      in.GymID,
			UserID:     userID,
			PlanID:     plan.PlanID,
			PaymentID:  s.newID(),
			PaidAmount: validDecimal(in.PaidAmount),
			Date:       joinedAt,
			AddedBy:    profile.CreatedBy,
		}
	}

	err := s.run(ctx, opEnroll, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertMember(ctx, member, profile); err != nil {
			return err
		}
		if err := tx.InsertPlan(ctx, plan); err != nil {
			return err
		}
		if payment != nil {
			return tx.InsertPayment(ctx, *payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordEnrollment()
	result := &EnrollResult{Member: member, Plan: plan}
	if payment != nil {
		metrics.RecordCollected(in.PaidAmount.InexactFloat64())
		result.PaymentID = payment.PaymentID
		s.sendReceipt(ctx, member, in.PaidAmount, plan.Due.Decimal, joinedAt)
	}
	return result, nil
}

func (s *service) GetPlan(ctx context.Context, gymID, userID, planID string) (*Plan, error) {
	if err := requireIDs(gymID, userID, planID); err != nil {
		return nil, err
	}
	p, err := s.store.GetPlan(ctx, gymID, userID, planID)
	if err != nil {
		return nil, s.reportRead("get plan", err)
	}
	return p, nil
}

func (s *service) ListPlans(ctx context.Context, gymID, userID string) ([]Plan, error) {
	if err := requireIDs(gymID, userID); err != nil {
		return nil, err
	}
	plans, err := s.store.ListPlans(ctx, gymID, userID)
	if err != nil {
		return nil, s.reportRead("list plans", err)
	}
	return plans, nil
}

func (s *service) ListPayments(ctx context.Context, gymID, userID, planID string) ([]Payment, error) {
	if err := requireIDs(gymID, userID, planID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, gymID, userID, planID)
	if err != nil {
		return nil, s.reportRead("list payments", err)
	}
	if payments == nil {
		payments = []Payment{}
	}
	return payments, nil
}

// run executes fn in a store transaction, retrying conflicts with
// exponential backoff up to the policy's attempt budget. The returned error
// is always one of the ledger sentinels or a context error.
func (s *service) run(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.BaseDelay
	b.MaxInterval = 16 * s.policy.BaseDelay

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := s.store.RunInTx(ctx, fn)
		switch {
		case err == nil:
			return struct{}{}, nil
		case IsRetryable(err):
			metrics.RecordConflict(op)
			logger.Debug("ledger transaction conflict", "operation", op, "attempt", attempts)
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.policy.MaxAttempts))

	classified := classify(err)
	switch {
	case classified == nil:
		metrics.RecordLedgerOperation(op, "success", attempts)
	case errors.Is(classified, ErrTransactionConflict):
		metrics.RecordLedgerOperation(op, "conflict", attempts)
		logger.Warn("ledger retries exhausted", "operation", op, "attempts", attempts)
	case errors.Is(classified, ErrUnknown):
		metrics.RecordLedgerOperation(op, "error", attempts)
		logger.WithError(err).Error("ledger transaction failed", "operation", op)
	default:
		metrics.RecordLedgerOperation(op, "rejected", attempts)
	}
	return classified
}

func (s *service) reportRead(what string, err error) error {
	classified := classify(err)
	if errors.Is(classified, ErrUnknown) {
		logger.WithError(err).Error("ledger read failed", "operation", what)
	}
	return classified
}

func (s *service) sendReceipt(ctx context.Context, m Member, amount, due decimal.Decimal, when time.Time) {
	if s.receipts == nil || m.Email == "" {
		return
	}
	if err := s.receipts.SendPaymentReceipt(ctx, m.Email, m.Name, amount.StringFixed(2), due.StringFixed(2), when); err != nil {
		logger.WithError(err).Warn("failed to queue payment receipt", "user_id", m.UserID)
	}
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: missing identifier", ErrInvalidInput)
		}
	}
	return nil
}

func validateEnroll(in EnrollInput) error {
	if err := requireIDs(in.GymID, in.SubscriptionPlanID); err != nil {
		return err
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", ErrInvalidInput)
	}
	if in.Months < 1 {
		return fmt.Errorf("%w: months must be at least 1", ErrInvalidInput)
	}
	if in.Profile.JoinedAt.IsZero() {
		return fmt.Errorf("%w: joinedAt is required", ErrInvalidInput)
	}
	if !timeutil.InRange(in.Profile.JoinedAt) || !timeutil.InRange(timeutil.AddMonths(in.Profile.JoinedAt.UTC(), in.Months)) {
		return fmt.Errorf("%w: joinedAt and plan expiry must fall within years 0001-9999", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Profile.CreatedBy) == "" {
		return fmt.Errorf("%w: createdBy is required", ErrInvalidInput)
	}
	if in.PaidAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if !isCents(in.PaidAmount) {
		return errSubCent
	}
	if in.PaidAmount.GreaterThan(in.Price) {
		return ErrAmountExceedsDue
	}
	return nil
}

var errSubCent = fmt.Errorf("%w: amount cannot have more than 2 decimal places", ErrInvalidInput)

// isCents reports whether d fits the NUMERIC(12, 2) money columns exactly.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
