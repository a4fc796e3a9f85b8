package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member carries the aggregate balance of one gym member. TotalPaid and
// TotalDue are nullable so that a partially written record is detectable.
type Member struct {
	GymID         string              `db:"gym_id" json:"gymId"`
	UserID        string              `db:"user_id" json:"userId"`
	Name          string              `db:"name" json:"name"`
	Email         string              `db:"email" json:"email"`
	TotalToBePaid decimal.Decimal     `db:"total_to_be_paid" json:"totalToBePaid"`
	TotalPaid     decimal.NullDecimal `db:"total_paid" json:"totalPaid"`
	TotalDue      decimal.NullDecimal `db:"total_due" json:"totalDue"`
}

// MemberProfile is the non-financial part of a member written at enrollment.
type MemberProfile struct {
	Name         string
	Email        string
	Gender       string
	DOB          string
	Address      string
	Phone        string
	TrainingType string
	Notes        string
	JoinedAt     time.Time
	CreatedBy    string
}

// Plan is one purchased subscription period owned by a member.
type Plan struct {
	GymID              string              `db:"gym_id" json:"gymId"`
	UserID             string              `db:"user_id" json:"userId"`
	PlanID             string              `db:"plan_id" json:"planId"`
	SubscriptionPlanID string              `db:"subscription_plan_id" json:"subscriptionPlanId"`
	Name               string              `db:"name" json:"name"`
	Price              decimal.Decimal     `db:"price" json:"price"`
	Paid               decimal.NullDecimal `db:"paid" json:"paid"`
	Due                decimal.NullDecimal `db:"due" json:"due"`
	Months             int                 `db:"months" json:"months"`
	PurchasedAt        time.Time           `db:"purchased_at" json:"purchasedAt"`
	ExpiresAt          time.Time           `db:"expires_at" json:"expiresAt"`
}

// Payment is a single ledger entry under a plan.
type Payment struct {
	GymID      string              `db:"gym_id" json:"gymId"`
	UserID     string              `db:"user_id" json:"userId"`
	PlanID     string              `db:"plan_id" json:"planId"`
	PaymentID  string              `db:"payment_id" json:"paymentId"`
	PaidAmount decimal.NullDecimal `db:"paid_amount" json:"paidAmount"`
	Date       time.Time           `db:"date" json:"date"`
	AddedBy    string              `db:"added_by" json:"addedBy"`
}

type AddPaymentInput struct {
	GymID   string
	UserID  string
	PlanID  string
	Amount  decimal.Decimal
	Date    time.Time
	AddedBy string
}

type AddPaymentResult struct {
	PaymentID  string          `json:"paymentId"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	Date       time.Time       `json:"date"`
	AddedBy    string          `json:"addedBy"`
	UserID     string          `json:"userId"`
	PlanID     string          `json:"planId"`
}

type DeletePaymentInput struct {
	GymID     string
	UserID    string
	PlanID    string
	PaymentID string
}

type EnrollInput struct {
	GymID              string
	Profile            MemberProfile
	SubscriptionPlanID string
	PlanName           string
	Price              decimal.Decimal
	Months             int
	PaidAmount         decimal.Decimal
}

type EnrollResult struct {
	Member    Member `json:"member"`
	Plan      Plan   `json:"plan"`
	PaymentID string `json:"paymentId,omitempty"`
}

func validDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
