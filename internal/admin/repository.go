package admin

import (
	"context"
	"database/sql"
	"errors"

	"gymledger/internal/db"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Admin) error {
	query := `
		INSERT INTO admins (user_id, gym_id, name, email, phone, gender, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.GetContext(ctx, &a.CreatedAt, query,
		a.ID, a.GymID, a.Name, a.Email, a.Phone, a.Gender, a.PasswordHash)
	if db.IsUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id string) (*Admin, error) {
	return r.findOne(ctx, `WHERE user_id = $1`, id)
}

func (r *repository) findOne(ctx context.Context, where string, arg interface{}) (*Admin, error) {
	query := `
		SELECT user_id, gym_id, name, email, phone, gender, password_hash, created_at
		FROM admins
		` + where

	var a Admin
	err := r.db.GetContext(ctx, &a, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)`, email)
}
