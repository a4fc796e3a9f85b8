package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paymentsPath = "/admin/gyms/:gymID/members/:userID/plans/:planID/payments"

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)

	r := gin.New()
	r.POST(paymentsPath, h.AddPayment)
	r.GET(paymentsPath, h.ListPayments)
	r.DELETE(paymentsPath+"/:paymentID", h.DeletePayment)
	r.GET("/admin/gyms/:gymID/members/:userID/plans", h.ListPlans)
	r.GET("/admin/gyms/:gymID/members/:userID/plans/:planID", h.GetPlan)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_AddPayment(t *testing.T) {
	store := NewMemory()
	svc := newTestService(store, nil, DefaultRetryPolicy())
	e := enroll(t, svc, "1200", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := setupRouter(svc)
	base := "/admin/gyms/IronHouse/members/" + e.Member.UserID + "/plans/" + e.Plan.PlanID + "/payments"

	w := doJSON(r, http.MethodPost, base,
		`{"amount": 500, "date": {"seconds": 1709634600, "nanoseconds": 0}, "addedBy": " desk "}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		PaymentID  string `json:"paymentId"`
		PaidAmount string `json:"paidAmount"`
		Date       struct {
			Seconds int64 `json:"seconds"`
		} `json:"date"`
		AddedBy string `json:"addedBy"`
		UserID  string `json:"userId"`
		PlanID  string `json:"planId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PaymentID)
	assert.Equal(t, "500", resp.PaidAmount)
	assert.Equal(t, int64(1709634600), resp.Date.Seconds)
	assert.Equal(t, "desk", resp.AddedBy)
	assert.Equal(t, e.Member.UserID, resp.UserID)
	assert.Equal(t, e.Plan.PlanID, resp.PlanID)

	// legacy timestamp shape and string amount
	w = doJSON(r, http.MethodPost, base,
		`{"amount": "100.25", "date": {"_seconds": 1709634600, "_nanoseconds": 5}, "addedBy": "desk"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	var payments []Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
	assert.Len(t, payments, 2)

	w = doJSON(r, http.MethodGet, "/admin/gyms/ironhouse/members/"+e.Member.UserID+"/plans/"+e.Plan.PlanID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var plan Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assertDec(t, "600.25", plan.Paid.Decimal)
	assertDec(t, "599.75", plan.Due.Decimal)
}

func TestHandler_AddPaymentErrors(t *testing.T) {
	store := NewMemory()
	svc := newTestService(store, nil, DefaultRetryPolicy())
	e := enroll(t, svc, "1200", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := setupRouter(svc)
	base := "/admin/gyms/ironhouse/members/" + e.Member.UserID + "/plans/" + e.Plan.PlanID + "/payments"
	date := `{"seconds": 1709634600, "nanoseconds": 0}`

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"exceeds due", base, `{"amount": 1200.01, "date": ` + date + `, "addedBy": "desk"}`, http.StatusBadRequest},
		{"zero amount", base, `{"amount": 0, "date": ` + date + `, "addedBy": "desk"}`, http.StatusBadRequest},
		{"negative amount", base, `{"amount": -3, "date": ` + date + `, "addedBy": "desk"}`, http.StatusBadRequest},
		{"missing amount", base, `{"date": ` + date + `, "addedBy": "desk"}`, http.StatusBadRequest},
		{"missing date", base, `{"amount": 10, "addedBy": "desk"}`, http.StatusBadRequest},
		{"missing addedBy", base, `{"amount": 10, "date": ` + date + `}`, http.StatusBadRequest},
		{"blank addedBy", base, `{"amount": 10, "date": ` + date + `, "addedBy": "   "}`, http.StatusBadRequest},
		{"string seconds", base, `{"amount": 10, "date": {"seconds": "1709634600", "nanoseconds": 0}, "addedBy": "desk"}`, http.StatusBadRequest},
		{"nanoseconds out of range", base, `{"amount": 10, "date": {"seconds": 1, "nanoseconds": 1000000000}, "addedBy": "desk"}`, http.StatusBadRequest},
		{"date after year 9999", base, `{"amount": 500, "date": {"seconds": 1000000000000, "nanoseconds": 0}, "addedBy": "desk"}`, http.StatusBadRequest},
		{"date before year 1", base, `{"amount": 500, "date": {"_seconds": -62135596801, "_nanoseconds": 0}, "addedBy": "desk"}`, http.StatusBadRequest},
		{"date as string", base, `{"amount": 10, "date": "2024-03-05", "addedBy": "desk"}`, http.StatusBadRequest},
		{"unknown plan", "/admin/gyms/ironhouse/members/" + e.Member.UserID + "/plans/nope/payments", `{"amount": 10, "date": ` + date + `, "addedBy": "desk"}`, http.StatusNotFound},
		{"unknown member", "/admin/gyms/ironhouse/members/nobody/plans/" + e.Plan.PlanID + "/payments", `{"amount": 10, "date": ` + date + `, "addedBy": "desk"}`, http.StatusNotFound},
		{"malformed json", base, `{"amount": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	checkLedger(t, store, e.Member.UserID, e.Plan.PlanID)
	plan := planOf(t, store, e.Member.UserID, e.Plan.PlanID)
	assertDec(t, "0", plan.Paid.Decimal)

	w := doJSON(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandler_DeletePayment(t *testing.T) {
	store := NewMemory()
	svc := newTestService(store, nil, DefaultRetryPolicy())
	e := enroll(t, svc, "1200", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	res, err := svc.AddPayment(context.Background(), addInput(e.Member.UserID, e.Plan.PlanID, "500"))
	require.NoError(t, err)
	r := setupRouter(svc)
	path := "/admin/gyms/ironhouse/members/" + e.Member.UserID + "/plans/" + e.Plan.PlanID + "/payments/" + res.PaymentID

	w := doJSON(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"document not found or missing fields"}`, w.Body.String())
}

func TestHandler_ListPlans(t *testing.T) {
	svc := newTestService(NewMemory(), nil, DefaultRetryPolicy())
	e := enroll(t, svc, "1200", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := setupRouter(svc)

	w := doJSON(r, http.MethodGet, "/admin/gyms/ironhouse/members/"+e.Member.UserID+"/plans", "")
	require.Equal(t, http.StatusOK, w.Code)

	var plans []Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, e.Plan.PlanID, plans[0].PlanID)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", ErrDocumentNotFoundOrMissingFields, http.StatusNotFound, "document not found or missing fields"},
		{"exceeds due", ErrAmountExceedsDue, http.StatusBadRequest, "amount exceeds due"},
		{"invalid amount", ErrInvalidAmount, http.StatusBadRequest, "amount must be greater than zero"},
		{"conflict", ErrTransactionConflict, http.StatusConflict, "payment is being modified concurrently, try again"},
		{"unknown", ErrUnknown, http.StatusInternalServerError, "internal server error"},
		{"raw driver error", errors.New("pq: relation \"payments\" does not exist"), http.StatusInternalServerError, "internal server error"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "request timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.body+`"}`, w.Body.String())
		})
	}
}
