package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
)

func TestParseTTL(t *testing.T) {
	cases := map[string]time.Duration{
		"3600":  time.Hour,
		"30s":   30 * time.Second,
		"15m":   15 * time.Minute,
		"24h":   24 * time.Hour,
		"7d":    7 * 24 * time.Hour,
		"2w":    14 * 24 * time.Hour,
		"1y":    365 * 24 * time.Hour,
		"12H":   12 * time.Hour,
		"":      DefaultTTL,
		"1.5h":  DefaultTTL,
		"h":     DefaultTTL,
		"10x":   DefaultTTL,
		"-5m":   DefaultTTL,
		" 90m ": 90 * time.Minute,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTTL(in), "ParseTTL(%q)", in)
	}
}

func TestParseTTLOverflowFallsBack(t *testing.T) {
	assert.Equal(t, 292*365*24*time.Hour, ParseTTL("292y"))
	for _, in := range []string{"293y", "300y", "1000y", "600000w", "99999999999999999999"} {
		assert.Equal(t, DefaultTTL, ParseTTL(in), "ParseTTL(%q)", in)
	}
}

func TestParseTTLStrictReportsReason(t *testing.T) {
	d, err := ParseTTLStrict("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	_, err = ParseTTLStrict("300y")
	assert.ErrorContains(t, err, "exceeds")
	_, err = ParseTTLStrict("soon")
	assert.ErrorContains(t, err, "is not")
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	require.ErrorIs(t, err, ErrMissingSecret)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestIssueAndVerify(t *testing.T) {
	iss, err := NewIssuer("test-secret-32-bytes-should-be-long-enough", 2*time.Minute)
	require.NoError(t, err)

	tok, err := iss.Issue("user-123", "AW001", "anganwadi_worker")
	require.NoError(t, err)

	claims, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "AW001", claims.EmployeeID)
	assert.Equal(t, "anganwadi_worker", claims.Role)
	assert.Equal(t, 2*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyExpired(t *testing.T) {
	iss, err := NewIssuer("another-secret-32-bytes-longgggg", time.Second)
	require.NoError(t, err)
	start := time.Now()
	iss.now = func() time.Time { return start }

	tok, err := iss.Issue("u2", "E2", "admin")
	require.NoError(t, err)

	iss.now = func() time.Time { return start.Add(2 * time.Second) }
	_, err = iss.Verify(tok)
	require.ErrorIs(t, err, apperr.ErrAuthentication)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifyWrongSecretFails(t *testing.T) {
	a, _ := NewIssuer("secret-one-32-bytes-xxxxxxxxxxxxxxxx", time.Minute)
	b, _ := NewIssuer("different-secret-xxxxxxxxxxxxxxxx", time.Minute)
	tok, err := a.Issue("u3", "E3", "supervisor")
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestVerifyMalformed(t *testing.T) {
	iss, _ := NewIssuer("x", time.Minute)
	_, err := iss.Verify("not.a.jwt")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

// Rejected when alg=none (unsigned token)
func TestVerifyAlgNoneRejected(t *testing.T) {
	iss, _ := NewIssuer("x", time.Minute)
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-none","exp":9999999999}`))
	_, err := iss.Verify(headerEnc + "." + payloadEnc + ".")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestVerifyRejectsOtherHMACSizes(t *testing.T) {
	secret := "hs512-secret-xxxxxxxxxxxxxxxxxxxxxxxx"
	iss, _ := NewIssuer(secret, time.Minute)
	jt := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Minute).Unix()})
	tok, err := jt.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

// Tampering with payload must fail signature verification
func TestVerifyTamperedPayload(t *testing.T) {
	iss, _ := NewIssuer("tamper-test-secret-32-bytes-xxxxxxx", 5*time.Minute)
	tok, err := iss.Issue("user-t", "E9", "hospital")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	require.Contains(t, string(payload), `"role":"hospital"`)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payload), "hospital", "admin", 1)))

	_, err = iss.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestIssueRequiresSubject(t *testing.T) {
	iss, _ := NewIssuer("s", time.Minute)
	_, err := iss.Issue("", "E", "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
