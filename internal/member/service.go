package member

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gymledger/internal/api"
	"gymledger/internal/ledger"
	"gymledger/internal/logger"
	"gymledger/internal/subscription"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMemberNotFound  = errors.New("member not found")
	ErrNothingToUpdate = errors.New("no fields to update")
	ErrInvalidMember   = errors.New("invalid member")
)

// Enroller opens a member's first plan.
type Enroller interface {
	Enroll(ctx context.Context, in ledger.EnrollInput) (*ledger.EnrollResult, error)
}

type PlanCatalog interface {
	GetPlan(ctx context.Context, gymID, planID string) (*subscription.Plan, error)
}

type Service interface {
	AddMember(ctx context.Context, gymID string, req AddMemberRequest) (*ledger.EnrollResult, error)
	UpdateMember(ctx context.Context, gymID, userID string, req UpdateMemberRequest) (*Member, error)
	GetMember(ctx context.Context, gymID, userID string) (*Member, error)
	ListMembers(ctx context.Context, gymID string) ([]*Member, error)
}

type service struct {
	repo     Repository
	catalog  PlanCatalog
	enroller Enroller
	validate *validator.Validate
}

func NewService(repo Repository, catalog PlanCatalog, enroller Enroller) Service {
	v := validator.New()
	v.SetTagName("binding")
	api.RegisterJSONFieldNames(v)

	return &service{
		repo:     repo,
		catalog:  catalog,
		enroller: enroller,
		validate: v,
	}
}

func (s *service) AddMember(ctx context.Context, gymID string, req AddMemberRequest) (*ledger.EnrollResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	req.DOB = strings.TrimSpace(req.DOB)

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMember, err)
	}
	if !validDOB(req.DOB) {
		return nil, fmt.Errorf("%w: dob must be YYYY-MM-DD or an RFC 3339 timestamp", ErrInvalidMember)
	}
	if err := req.JoinedAt.Validate(); err != nil {
		return nil, fmt.Errorf("%w: joinedAt: %v", ErrInvalidMember, err)
	}

	plan, err := s.catalog.GetPlan(ctx, gymID, req.PlanID)
	if err != nil {
		return nil, err
	}

	res, err := s.enroller.Enroll(ctx, ledger.EnrollInput{
		GymID: gymID,
		Profile: ledger.MemberProfile{
			Name:         req.Name,
			Email:        req.Email,
			Gender:       req.Gender,
			DOB:          req.DOB,
			Address:      req.Address,
			Phone:        req.Phone,
			TrainingType: req.TrainingType,
			Notes:        req.Notes,
			JoinedAt:     req.JoinedAt.Time(),
			CreatedBy:    req.CreatedBy,
		},
		SubscriptionPlanID: plan.ID,
		PlanName:           plan.Name,
		Price:              plan.Price,
		Months:             plan.Months,
		PaidAmount:         *req.PaidAmount,
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Member enrolled: gym=%s user=%s plan=%s", gymID, res.Member.UserID, plan.ID)
	return res, nil
}

func (s *service) UpdateMember(ctx context.Context, gymID, userID string, req UpdateMemberRequest) (*Member, error) {
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
	if req.DOB != nil {
		dob := strings.TrimSpace(*req.DOB)
		req.DOB = &dob
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMember, err)
	}
	if req.DOB != nil && !validDOB(*req.DOB) {
		return nil, fmt.Errorf("%w: dob must be YYYY-MM-DD or an RFC 3339 timestamp", ErrInvalidMember)
	}

	fields := req.columns()
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.repo.UpdateProfile(ctx, gymID, userID, fields); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, gymID, userID)
}

func (s *service) GetMember(ctx context.Context, gymID, userID string) (*Member, error) {
	return s.repo.GetByID(ctx, gymID, userID)
}

func (s *service) ListMembers(ctx context.Context, gymID string) ([]*Member, error) {
	members, err := s.repo.ListByGym(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*Member{}
	}
	return members, nil
}
