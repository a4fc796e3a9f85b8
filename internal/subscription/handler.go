package subscription

import (
	"errors"
	"net/http"

	"gymledger/internal/api"
	"gymledger/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreatePlan godoc
// @Summary      Create subscription plan
// @Description  Adds a plan to the gym's catalog.
// @Tags         plans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        gymID    path      string             true  "Gym ID"
// @Param        request  body      CreatePlanRequest  true  "Plan definition"
// @Success      201      {object}  Plan
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), api.GymID(c), req)
	if err != nil {
		if IsClientError(err) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		logger.WithError(err).Error("create plan failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create plan"})
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// ListPlans godoc
// @Summary      List subscription plans
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        gymID  path      string  true  "Gym ID"
// @Success      200    {array}   Plan
// @Failure      500    {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context(), api.GymID(c))
	if err != nil {
		logger.WithError(err).Error("list plans failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary      Get subscription plan
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        gymID   path      string  true  "Gym ID"
// @Param        planID  path      string  true  "Plan ID"
// @Success      200     {object}  Plan
// @Failure      404     {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/plans/{planID} [get]
func (h *Handler) GetPlan(c *gin.Context) {
	plan, err := h.service.GetPlan(c.Request.Context(), api.GymID(c), c.Param("planID"))
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "plan not found"})
			return
		}
		logger.WithError(err).Error("get plan failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, plan)
}
