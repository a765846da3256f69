package handlers

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
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/auth"
	"github.com/carelink/carelink/backend/go-services/internal/care"
	"github.com/carelink/carelink/backend/go-services/internal/gateway"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/passwords"
	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/internal/store/recordstore"
	"github.com/carelink/carelink/backend/go-services/internal/tokens"
	"github.com/carelink/carelink/backend/go-services/internal/users"
)

func init() { gin.SetMode(gin.TestMode) }

type testAPI struct {
	router *gin.Engine
	gw     *gateway.Gateway
	issuer *tokens.Issuer
}

func newTestAPI(t *testing.T, opts ...func(*Deps)) *testAPI {
	t.Helper()
	rs, err := recordstore.New(t.TempDir(), models.Schemas()...)
	require.NoError(t, err)
	gw := gateway.New(store.NewLazy(nil, 0), rs, models.Schemas()...)
	iss, err := tokens.NewIssuer("handler-test-secret", time.Hour)
	require.NoError(t, err)
	repo := users.NewRepository(gw)
	d := Deps{
		Auth:          auth.NewService(repo, passwords.NewVerifier(false), iss),
		Users:         users.NewService(repo),
		Patients:      care.NewPatientService(gw),
		Beds:          care.NewBedService(gw),
		Notifications: care.NewNotificationService(gw),
		Verifier:      iss,
		Status:        gw.Status,
	}
	for _, o := range opts {
		o(&d)
	}
	return &testAPI{router: NewRouter(d), gw: gw, issuer: iss}
}

func (a *testAPI) seedUser(t *testing.T, username, emp, role, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	row, err := a.gw.Insert(context.Background(), models.CollectionUsers, store.Row{
		"employee_id": emp, "username": username, "name": "User " + username, "role": role,
		"is_active": true, "password_hash": string(h), "contact_number": "98450", "email": username + "@example.org",
	})
	require.NoError(t, err)
	return row.ID()
}

func (a *testAPI) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := a.issuer.Issue("caller-"+role, "EMP-"+role, role)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t)
	id := api.seedUser(t, "sup1", "SUP001", models.RoleSupervisor, "super-secret")

	w := api.do(http.MethodPost, "/auth/login", "", gin.H{"username": "sup1", "password": "super-secret", "employeeId": "SUP001"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotEmpty(t, got.Token)
	assert.Equal(t, map[string]any{
		"id": id, "employee_id": "SUP001", "name": "User sup1", "role": "supervisor",
		"contact_number": "98450", "email": "sup1@example.org",
	}, got.User)

	me := api.do(http.MethodGet, "/auth/me", got.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"id":"`+id+`"`)
}

func TestLoginFailuresShareOneResponse(t *testing.T) {
	api := newTestAPI(t)
	goneID := api.seedUser(t, "gone", "E2", models.RoleWorker, "pw-123456")
	api.seedUser(t, "sup1", "E1", models.RoleSupervisor, "pw-123456")
	require.NoError(t, api.gw.SoftDelete(context.Background(), models.CollectionUsers, goneID))

	var bodies []string
	for _, body := range []gin.H{
		{"username": "nobody", "password": "pw-123456"},
		{"username": "sup1", "password": "wrong"},
		{"username": "gone", "password": "pw-123456"},
	} {
		w := api.do(http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		bodies = append(bodies, w.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, bodies[0])
}

func TestLoginMissingFields(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodPost, "/auth/login", "", gin.H{"username": "sup1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type brokenLookup struct{}

func (brokenLookup) FindActiveByUsername(context.Context, string, string) (*models.User, error) {
	return nil, errors.Join(errors.New("supabase: 502; recordstore: disk full"), apperr.ErrUnavailable)
}

func TestLoginBackendFailureIsGeneric(t *testing.T) {
	iss, err := tokens.NewIssuer("s", time.Hour)
	require.NoError(t, err)
	g := gin.New()
	NewAuthHandler(auth.NewService(brokenLookup{}, passwords.NewVerifier(false), iss), iss).Register(g.Group("/"), nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"a","password":"b"}`))
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestUsersAdminFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token(t, models.RoleAdmin)
	body := gin.H{"employeeId": "AW100", "username": "NewWorker", "password": "secret1", "name": "Lakshmi", "role": models.RoleWorker}

	w := api.do(http.MethodPost, "/api/users", api.token(t, models.RoleSupervisor), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/users", admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")
	var created struct {
		User models.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "newworker", created.User.Username)

	w = api.do(http.MethodPost, "/api/users", admin, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), users.MsgEmployeeIDTaken)

	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"username": "newworker", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodDelete, "/api/users/"+created.User.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"username": "newworker", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password_hash")
	assert.Contains(t, w.Body.String(), `"is_active":false`)

	w = api.do(http.MethodGet, "/api/users/ghost", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	for _, p := range []string{"/api/users", "/api/patients", "/api/beds", "/api/notifications"} {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, p, "", nil).Code, p)
	}
}

func TestPatientEndpoints(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, models.RoleWorker)

	w := api.do(http.MethodPost, "/api/patients", tok, gin.H{"name": "Meena", "type": "pregnant", "pregnancyWeek": 20, "registeredBy": "AW001"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Patient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Regexp(t, `^REG-\d+$`, p.RegistrationNumber)

	w = api.do(http.MethodPut, "/api/patients/"+p.ID, tok, gin.H{"remarks": "anaemic"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"remarks":"anaemic"`)

	w = api.do(http.MethodGet, "/api/patients?registeredBy=AW001&limit=10", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data  []models.Patient `json:"data"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/patients?limit=abc", tok, nil).Code)

	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/api/patients/"+p.ID, tok, nil).Code)
	w = api.do(http.MethodGet, "/api/patients", tok, nil)
	assert.Contains(t, w.Body.String(), `"total":0`)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/patients/ghost", tok, nil).Code)
}

func TestBedAndNotificationEndpoints(t *testing.T) {
	api := newTestAPI(t)
	hosp := api.token(t, models.RoleHospital)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/beds", api.token(t, models.RoleWorker), gin.H{"hospitalId": "H1", "bedNumber": "1"}).Code)

	w := api.do(http.MethodPost, "/api/beds", hosp, gin.H{"hospitalId": "H1", "bedNumber": "12", "ward": "NRC"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b models.Bed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, models.BedAvailable, b.Status)

	w = api.do(http.MethodPut, "/api/beds/"+b.ID, hosp, gin.H{"status": "occupied", "patientName": "Ravi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, "/api/beds/ghost", hosp, gin.H{"status": "occupied"}).Code)

	w = api.do(http.MethodGet, "/api/beds?status=occupied", hosp, nil)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = api.do(http.MethodPost, "/api/notifications", hosp, gin.H{"userRole": "supervisor", "title": "Bed assigned", "message": "Bed 12"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var n models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))

	w = api.do(http.MethodGet, "/api/notifications?userRole=supervisor&isRead=false", hosp, nil)
	assert.Contains(t, w.Body.String(), n.ID)

	w = api.do(http.MethodPut, "/api/notifications/"+n.ID+"/read", hosp, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_read":true`)

	w = api.do(http.MethodGet, "/api/notifications/role/supervisor", hosp, nil)
	assert.Contains(t, w.Body.String(), n.ID)
}

func TestHealthAndReady(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil).Code)

	w := api.do(http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"primary":"unconfigured"`)
	assert.Contains(t, w.Body.String(), `"fallback":"recordstore"`)
}
