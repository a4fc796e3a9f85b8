package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string            `json:"error" example:"something went wrong"`
	Details []ValidationError `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database,omitempty" example:"ok"`
	Redis    string `json:"redis,omitempty" example:"ok"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GymID returns the normalised :gymID path parameter. Gym ids are stored
// lower-cased.
func GymID(c *gin.Context) string {
	return NormalizeGymID(c.Param("gymID"))
}

func NormalizeGymID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
