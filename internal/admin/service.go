package admin

import (
	"context"
	"errors"
	"strings"

	"gymledger/internal/api"
	"gymledger/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const phonePrefix = "+91"

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminNotFound      = errors.New("admin not found")
)

type Service interface {
	CreateAdmin(ctx context.Context, req CreateAdminRequest) (*Admin, error)
	Login(ctx context.Context, email, password string) (*Admin, string, string, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *Admin, error)
}

type service struct {
	repo      Repository
	jwtSecret string
	validate  *validator.Validate
}

func NewService(repo Repository, jwtSecret string) Service {
	v := validator.New()
	v.SetTagName("binding")
	api.RegisterJSONFieldNames(v)

	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
		validate:  v,
	}
}

// CreateAdmin validates req with the same rules the HTTP binding applies, so
// admins created from the CLI obey them too.
func (s *service) CreateAdmin(ctx context.Context, req CreateAdminRequest) (*Admin, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.GymID = api.NormalizeGymID(req.GymID)

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	a := &Admin{
		ID:           uuid.NewString(),
		GymID:        req.GymID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        NormalizePhone(req.Phone),
		Gender:       req.Gender,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Admin, string, string, error) {
	a, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(identity(a), s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return a, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Admin, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *Admin, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	a, err := s.repo.FindByID(ctx, claims.AdminID)
	if err != nil {
		return "", nil, ErrAdminNotFound
	}

	// re-issue from the stored row so a moved admin loses the old gym
	newAccessToken, err := auth.GenerateAccessToken(identity(a), s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, a, nil
}

func identity(a *Admin) auth.Identity {
	return auth.Identity{
		AdminID: a.ID,
		Email:   a.Email,
		GymID:   a.GymID,
		Role:    auth.RoleAdmin,
	}
}

// NormalizePhone stores ten-digit local numbers with the country prefix.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return phonePrefix + phone
}
