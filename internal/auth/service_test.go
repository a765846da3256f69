package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/gateway"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/passwords"
	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/internal/store/recordstore"
	"github.com/carelink/carelink/backend/go-services/internal/tokens"
	"github.com/carelink/carelink/backend/go-services/internal/users"
)

type fixture struct {
	svc    *Service
	gw     *gateway.Gateway
	issuer *tokens.Issuer
}

func newFixture(t *testing.T, demo bool) *fixture {
	t.Helper()
	rs, err := recordstore.New(t.TempDir(), models.Schemas()...)
	require.NoError(t, err)
	gw := gateway.New(store.NewLazy(nil, 0), rs, models.Schemas()...)
	iss, err := tokens.NewIssuer("unit-test-secret", time.Hour)
	require.NoError(t, err)
	return &fixture{
		svc:    NewService(users.NewRepository(gw), passwords.NewVerifier(demo), iss),
		gw:     gw,
		issuer: iss,
	}
}

func (f *fixture) addUser(t *testing.T, username, emp, credential string) store.Row {
	t.Helper()
	row, err := f.gw.Insert(context.Background(), "users", store.Row{
		"employee_id": emp, "username": username, "name": "Test " + username,
		"role": models.RoleSupervisor, "is_active": true, "password_hash": credential,
		"email": username + "@example.org",
	})
	require.NoError(t, err)
	return row
}

func bcryptHash(t *testing.T, p string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t, false)
	row := f.addUser(t, "sup1", "SUP001", bcryptHash(t, "s3cret!"))

	res, err := f.svc.Login(context.Background(), LoginRequest{Username: " SUP1 ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, row.ID(), res.User.ID)
	assert.Equal(t, "SUP001", res.User.EmployeeID)
	assert.Equal(t, "sup1@example.org", res.User.Email)

	claims, err := f.issuer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, row.ID(), claims.Subject)
	assert.Equal(t, models.RoleSupervisor, claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	row := f.addUser(t, "sup1", "SUP001", bcryptHash(t, "s3cret!"))
	f.addUser(t, "gone", "SUP002", bcryptHash(t, "s3cret!"))
	gone, err := f.gw.Query(ctx, "users", store.Filter{"username": "gone"})
	require.NoError(t, err)
	require.NoError(t, f.gw.SoftDelete(ctx, "users", gone.ID()))

	cases := map[string]LoginRequest{
		"unknown user":      {Username: "nobody", Password: "s3cret!"},
		"wrong password":    {Username: "sup1", Password: "guess"},
		"inactive account":  {Username: "gone", Password: "s3cret!"},
		"employee mismatch": {Username: "sup1", Password: "s3cret!", EmployeeID: "OTHER"},
	}
	var messages []string
	for name, req := range cases {
		_, err := f.svc.Login(ctx, req)
		require.ErrorIs(t, err, apperr.ErrAuthentication, name)
		assert.Equal(t, 401, apperr.Status(err), name)
		messages = append(messages, err.Error())
	}
	for _, m := range messages {
		assert.Equal(t, messages[0], m)
	}

	_, err = f.svc.Login(ctx, LoginRequest{Username: "sup1", Password: "s3cret!", EmployeeID: "SUP001"})
	assert.NoError(t, err, row.ID())
}

func TestLoginMissingFields(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.Login(context.Background(), LoginRequest{Password: "x"})
	assert.Equal(t, 400, apperr.Status(err))
	_, err = f.svc.Login(context.Background(), LoginRequest{Username: "x"})
	assert.Equal(t, 400, apperr.Status(err))
}

func TestLoginDemoAccounts(t *testing.T) {
	demo := newFixture(t, true)
	demo.addUser(t, "worker1", "AW001", "")
	_, err := demo.svc.Login(context.Background(), LoginRequest{Username: "worker1", Password: "worker123"})
	require.NoError(t, err)

	prod := newFixture(t, false)
	prod.addUser(t, "worker1", "AW001", "")
	_, err = prod.svc.Login(context.Background(), LoginRequest{Username: "worker1", Password: "worker123"})
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestLoginLegacyPlaintext(t *testing.T) {
	f := newFixture(t, false)
	f.addUser(t, "legacy", "L1", "plain-old")
	_, err := f.svc.Login(context.Background(), LoginRequest{Username: "legacy", Password: "plain-old"})
	assert.NoError(t, err)
}

type failingLookup struct{ err error }

func (f failingLookup) FindActiveByUsername(context.Context, string, string) (*models.User, error) {
	return nil, f.err
}

func TestLoginBackendFailureIsNotAuthError(t *testing.T) {
	iss, _ := tokens.NewIssuer("s", time.Hour)
	svc := NewService(failingLookup{err: fmt.Errorf("both down: %w", apperr.ErrUnavailable)}, passwords.NewVerifier(false), iss)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "a", Password: "b"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrAuthentication))
	assert.Equal(t, 500, apperr.Status(err))
}
