package ledger

import (
	"context"
	"errors"
	"net/http"

	"gymledger/internal/api"
	"gymledger/internal/timeutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type AddPaymentRequest struct {
	Amount  *decimal.Decimal    `json:"amount" binding:"required"`
	Date    *timeutil.Timestamp `json:"date" binding:"required"`
	AddedBy string              `json:"addedBy" binding:"required"`
}

type PaymentResponse struct {
	PaymentID  string             `json:"paymentId"`
	PaidAmount decimal.Decimal    `json:"paidAmount"`
	Date       timeutil.Timestamp `json:"date"`
	AddedBy    string             `json:"addedBy"`
	UserID     string             `json:"userId"`
	PlanID     string             `json:"planId"`
}

// AddPayment godoc
// @Summary      Record a payment
// @Description  Records a payment against a member's plan and updates plan and member balances atomically.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        gymID    path      string             true  "Gym ID"
// @Param        userID   path      string             true  "Member ID"
// @Param        planID   path      string             true  "Plan instance ID"
// @Param        payment  body      AddPaymentRequest  true  "Payment"
// @Success      201      {object}  PaymentResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members/{userID}/plans/{planID}/payments [post]
func (h *Handler) AddPayment(c *gin.Context) {
	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}
	if err := req.Date.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.service.AddPayment(c.Request.Context(), AddPaymentInput{
		GymID:   api.GymID(c),
		UserID:  c.Param("userID"),
		PlanID:  c.Param("planID"),
		Amount:  *req.Amount,
		Date:    req.Date.Time(),
		AddedBy: req.AddedBy,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PaymentResponse{
		PaymentID:  res.PaymentID,
		PaidAmount: res.PaidAmount,
		Date:       timeutil.FromTime(res.Date),
		AddedBy:    res.AddedBy,
		UserID:     res.UserID,
		PlanID:     res.PlanID,
	})
}

// DeletePayment godoc
// @Summary      Delete a payment
// @Description  Removes a payment entry and reverses its effect on plan and member balances.
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        gymID      path      string  true  "Gym ID"
// @Param        userID     path      string  true  "Member ID"
// @Param        planID     path      string  true  "Plan instance ID"
// @Param        paymentID  path      string  true  "Payment ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members/{userID}/plans/{planID}/payments/{paymentID} [delete]
func (h *Handler) DeletePayment(c *gin.Context) {
	err := h.service.DeletePayment(c.Request.Context(), DeletePaymentInput{
		GymID:     api.GymID(c),
		UserID:    c.Param("userID"),
		PlanID:    c.Param("planID"),
		PaymentID: c.Param("paymentID"),
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "payment deleted"})
}

// ListPayments godoc
// @Summary      List payments of a plan
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        gymID   path      string  true  "Gym ID"
// @Param        userID  path      string  true  "Member ID"
// @Param        planID  path      string  true  "Plan instance ID"
// @Success      200     {array}   Payment
// @Failure      500     {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members/{userID}/plans/{planID}/payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context(), api.GymID(c), c.Param("userID"), c.Param("planID"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// GetPlan godoc
// @Summary      Get a member's plan instance
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        gymID   path      string  true  "Gym ID"
// @Param        userID  path      string  true  "Member ID"
// @Param        planID  path      string  true  "Plan instance ID"
// @Success      200     {object}  Plan
// @Failure      404     {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/members/{userID}/plans/{planID} [get]
func (h *Handler) GetPlan(c *gin.Context) {
	plan, err := h.service.GetPlan(c.Request.Context(), api.GymID(c), c.Param("userID"), c.Param("planID"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// ListPlans godoc
// @Summary      List a member's plan instances
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        gymID   path      string  true  "Gym ID"
// @Param        userID  path      string  true  "Member ID"
// @Success      200     {array}   Plan
// @Router       /admin/gyms/{gymID}/members/{userID}/plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context(), api.GymID(c), c.Param("userID"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

// RespondError maps ledger errors to HTTP statuses. Unclassified errors get a
// generic body.
func RespondError(c *gin.Context, err error) {
	switch {
	case IsNotFound(err):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: ErrDocumentNotFoundOrMissingFields.Error()})
	case errors.Is(err, ErrAmountExceedsDue):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: ErrAmountExceedsDue.Error()})
	case IsClientError(err):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrTransactionConflict):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "payment is being modified concurrently, try again"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, api.ErrorResponse{Error: "request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}
