package member

import (
	"encoding/json"
	"errors"
	"net/http"

	"gymledger/internal/api"
	"gymledger/internal/ledger"
	"gymledger/internal/logger"
	"gymledger/internal/subscription"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// AddMember godoc
// @Summary      Add member
// @Description  Creates a member on a catalog plan, recording the amount paid at signup.
// @Tags         members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        gymID    path      string            true  "Gym ID"
// @Param        request  body      AddMemberRequest  true  "Member data"
// @Success      201      {object}  ledger.EnrollResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members [post]
func (h *Handler) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	res, err := h.service.AddMember(c.Request.Context(), api.GymID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// UpdateMember godoc
// @Summary      Update member profile
// @Description  Partially updates profile fields. Balances cannot be changed here.
// @Tags         members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        gymID    path      string               true  "Gym ID"
// @Param        userID   path      string               true  "Member ID"
// @Param        request  body      UpdateMemberRequest  true  "Fields to change"
// @Success      200      {object}  Member
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members/{userID} [patch]
func (h *Handler) UpdateMember(c *gin.Context) {
	var req UpdateMemberRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	m, err := h.service.UpdateMember(c.Request.Context(), api.GymID(c), c.Param("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// GetMember godoc
// @Summary      Get member
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        gymID   path      string  true  "Gym ID"
// @Param        userID  path      string  true  "Member ID"
// @Success      200     {object}  Member
// @Failure      404     {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members/{userID} [get]
func (h *Handler) GetMember(c *gin.Context) {
	m, err := h.service.GetMember(c.Request.Context(), api.GymID(c), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// ListMembers godoc
// @Summary      List members
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        gymID  path      string  true  "Gym ID"
// @Success      200    {array}   Member
// @Failure      500    {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.service.ListMembers(c.Request.Context(), api.GymID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidMember), errors.Is(err, ErrNothingToUpdate):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "member not found"})
	case errors.Is(err, subscription.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "plan not found"})
	default:
		// ledger failures are already classified and logged by the engine
		if !errors.Is(err, ledger.ErrUnknown) && !ledger.IsClientError(err) && !ledger.IsNotFound(err) && !ledger.IsRetryable(err) {
			logger.WithError(err).Error("member request failed")
		}
		ledger.RespondError(c, err)
	}
}
