package member

import (
	"time"

	"gymledger/internal/timeutil"

	"github.com/shopspring/decimal"
)

// Member is the stored profile joined with its read-only balance columns.
type Member struct {
	GymID         string              `db:"gym_id" json:"gymId"`
	UserID        string              `db:"user_id" json:"userId"`
	Name          string              `db:"name" json:"name"`
	Email         string              `db:"email" json:"email"`
	Gender        string              `db:"gender" json:"gender"`
	DOB           string              `db:"dob" json:"dob"`
	Address       string              `db:"address" json:"address"`
	Phone         string              `db:"phone" json:"phone"`
	TrainingType  string              `db:"training_type" json:"trainingType"`
	Notes         string              `db:"notes" json:"notes"`
	CreatedBy     string              `db:"created_by" json:"createdBy"`
	JoinedAt      time.Time           `db:"joined_at" json:"joinedAt"`
	TotalToBePaid decimal.Decimal     `db:"total_to_be_paid" json:"totalToBePaid"`
	TotalPaid     decimal.NullDecimal `db:"total_paid" json:"totalPaid"`
	TotalDue      decimal.NullDecimal `db:"total_due" json:"totalDue"`
	CreatedAt     time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updatedAt"`
}

type AddMemberRequest struct {
	Name         string              `json:"name" binding:"required,min=1,max=100"`
	Email        string              `json:"email" binding:"required,email"`
	Gender       string              `json:"gender" binding:"required,oneof=male female"`
	DOB          string              `json:"dob" binding:"required,max=40"`
	Address      string              `json:"address" binding:"required,max=255"`
	Phone        string              `json:"phone" binding:"required,len=10,numeric"`
	TrainingType string              `json:"trainingType" binding:"required,oneof=general personal"`
	PlanID       string              `json:"planId" binding:"required"`
	JoinedAt     *timeutil.Timestamp `json:"joinedAt" binding:"required"`
	PaidAmount   *decimal.Decimal    `json:"paidAmount" binding:"required"`
	Notes        string              `json:"notes" binding:"max=500"`
	CreatedBy    string              `json:"createdBy" binding:"required"`
}

// UpdateMemberRequest carries a partial profile update. Nil fields are left
// untouched.
type UpdateMemberRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Phone        *string `json:"phone" binding:"omitempty,len=10,numeric"`
	Gender       *string `json:"gender" binding:"omitempty,oneof=male female"`
	DOB          *string `json:"dob" binding:"omitempty,max=40"`
	TrainingType *string `json:"trainingType" binding:"omitempty,oneof=general personal"`
	Address      *string `json:"address" binding:"omitempty,max=255"`
	Notes        *string `json:"notes" binding:"omitempty,max=500"`
}

// columns maps the set fields of r to their column names.
func (r UpdateMemberRequest) columns() map[string]string {
	set := make(map[string]string)
	add := func(col string, v *string) {
		if v != nil {
			set[col] = *v
		}
	}
	add("name", r.Name)
	add("email", r.Email)
	add("phone", r.Phone)
	add("gender", r.Gender)
	add("dob", r.DOB)
	add("training_type", r.TrainingType)
	add("address", r.Address)
	add("notes", r.Notes)
	return set
}

// dobLayouts are the accepted date-of-birth formats: a plain calendar date or
// a full RFC 3339 timestamp.
var dobLayouts = []string{"2006-01-02", time.RFC3339}

func validDOB(dob string) bool {
	for _, layout := range dobLayouts {
		if _, err := time.Parse(layout, dob); err == nil {
			return true
		}
	}
	return false
}
