package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymledger/internal/auth"
	"gymledger/internal/config"
	"gymledger/internal/notify"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            testSecret,
		LedgerMaxAttempts:    3,
		LedgerRetryBaseDelay: time.Millisecond,
		RateLimitRPS:         1000,
		RateLimitBurst:       1000,
	}
}

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	return New(sqlx.NewDb(raw, "sqlmock"), testConfig(), nil), mock
}

func tokenFor(t *testing.T, gymID string) string {
	token, err := auth.GenerateAccessToken(auth.Identity{
		AdminID: "a1",
		Email:   "desk@" + gymID + ".in",
		GymID:   gymID,
		Role:    auth.RoleAdmin,
	}, testSecret)
	require.NoError(t, err)
	return token
}

func call(srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectPing()
	w := call(srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, w.Body.String())

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	w = call(srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","database":"unavailable"}`, w.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthChecksRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, rmock := redismock.NewClientMock()
	receipts := notify.New(rdb, nil, "Iron House")
	rmock.ExpectPing().SetErr(errors.New("dial tcp: refused"))

	router := gin.New()
	router.GET("/health", Health(func(context.Context) error { return nil }, receipts.Ping))

	w := get(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","database":"ok","redis":"unavailable"}`, w.Body.String())
}

type fakeQueue struct{ calls int }

func (f *fakeQueue) QueueLength(context.Context) int64 {
	f.calls++
	return 4
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	queue := &fakeQueue{}
	router := gin.New()
	router.GET("/metrics", Metrics(queue))

	w := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gymledger_enrollments_total")
	assert.Equal(t, 1, queue.calls)

	srv, _ := newTestServer(t)
	w = call(srv, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	w := call(srv, http.MethodGet, "/admin/gyms/ironhouse/plans", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(srv, http.MethodGet, "/admin/me", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGymScopedRoutes(t *testing.T) {
	srv, mock := newTestServer(t)
	token := tokenFor(t, "ironhouse")

	w := call(srv, http.MethodGet, "/admin/gyms/steelworks/members", token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	mock.ExpectQuery(`FROM subscription_plans WHERE gym_id = \$1`).
		WithArgs("ironhouse").
		WillReturnRows(sqlmock.NewRows([]string{"id", "gym_id", "name", "price", "months", "created_at"}).
			AddRow("q1", "ironhouse", "Quarterly", "1200.00", 3, time.Now()))

	w = call(srv, http.MethodGet, "/admin/gyms/IronHouse/plans", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"name":"Quarterly"`)

	w = call(srv, http.MethodPost, "/admin/gyms/ironhouse/members/u1/plans/p1/payments", token, `{"amount": 10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
	assert.Contains(t, w.Body.String(), `"field":"date"`)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRouteIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)

	w := call(srv, http.MethodPost, "/auth/login", "", `{"email":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
