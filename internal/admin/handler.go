package admin

import (
	"errors"
	"net/http"

	"gymledger/internal/api"
	"gymledger/internal/auth"
	"gymledger/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Login godoc
// @Summary      Login admin
// @Description  Authenticates an admin by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Admin credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	a, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		logger.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		TokenResponse: api.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken},
		Admin:         *a,
	})
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Returns a new access token for a valid refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "Refresh token payload"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "refresh_token is required"})
		return
	}

	accessToken, a, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"admin":        a,
	})
}

// CreateAdmin godoc
// @Summary      Create admin
// @Description  Creates another admin for the caller's gym.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateAdminRequest  true  "Admin data"
// @Success      201      {object}  Admin
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/admins [post]
func (h *Handler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	gymID, _ := auth.GetGymID(c)
	if api.NormalizeGymID(req.GymID) != gymID {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Access to this gym is not allowed"})
		return
	}

	a, err := h.service.CreateAdmin(c.Request.Context(), req)
	if err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.Is(err, ErrEmailExists):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
		case errors.As(err, &verrs):
			api.RespondBindError(c, err)
		default:
			logger.WithError(err).Error("create admin failed")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create admin"})
		}
		return
	}

	c.JSON(http.StatusCreated, a)
}

// GetMe godoc
// @Summary      Get current admin
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Admin
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /admin/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	adminID, ok := auth.GetAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Admin not authenticated"})
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Admin not found"})
			return
		}
		logger.WithError(err).Error("get admin failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, a)
}
