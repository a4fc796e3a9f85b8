package admin

import (
	"time"

	"gymledger/internal/api"
)

type Admin struct {
	ID           string    `db:"user_id" json:"id"`
	GymID        string    `db:"gym_id" json:"gym_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Gender       string    `db:"gender" json:"gender"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CreateAdminRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,len=10,numeric"`
	Gender   string `json:"gender" binding:"required,oneof=male female"`
	GymID    string `json:"gym_id" binding:"required,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	api.TokenResponse
	Admin Admin `json:"admin"`
}
