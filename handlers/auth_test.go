package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/tokens"
	"github.com/carelink/carelink/backend/go-services/pkg/middleware"
)

func TestLoginAcceptsSnakeCaseEmployeeID(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "hosp1", "HSP001", models.RoleHospital, "ward-pass")

	w := api.do(http.MethodPost, "/auth/login", "", gin.H{"username": "hosp1", "password": "ward-pass", "employee_id": "HSP001"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"username": "hosp1", "password": "ward-pass", "employee_id": "HSP999"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
}

func TestLoginMalformedBody(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestLoginLimiterGuardsOnlyLogin(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) {
		d.LoginLimit = middleware.RateLimitMiddleware(0.001, 2)
	})
	body := gin.H{"username": "nobody", "password": "guess"}

	for i := 0; i < 2; i++ {
		w := api.do(http.MethodPost, "/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}
	w := api.do(http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/auth/me", api.token(t, models.RoleWorker), nil).Code)
}

func TestMeReportsClaims(t *testing.T) {
	api := newTestAPI(t)
	tok, err := api.issuer.Issue("u-42", "AW042", models.RoleWorker)
	require.NoError(t, err)

	w := api.do(http.MethodGet, "/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "u-42", got["id"])
	assert.Equal(t, "AW042", got["employee_id"])
	assert.Equal(t, models.RoleWorker, got["role"])
	exp := time.Unix(int64(got["expires_at"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestMeRejectsForeignToken(t *testing.T) {
	api := newTestAPI(t)
	other, err := tokens.NewIssuer("some-other-secret", time.Hour)
	require.NoError(t, err)
	tok, err := other.Issue("u-1", "AW1", models.RoleAdmin)
	require.NoError(t, err)

	for _, h := range []string{"Bearer " + tok, "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", h)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, h)
		assert.NotContains(t, w.Body.String(), "signature", h)
	}
}

func TestMetricsRouteOptional(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/metrics", "", nil).Code)

	api = newTestAPI(t, func(d *Deps) {
		d.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("carelink_up 1\n"))
		})
	})
	w := api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carelink_up")
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodOptions, "/api/patients", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
