package tokens

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
)

// DefaultTTL applies when the configured lifetime cannot be parsed.
const DefaultTTL = 24 * time.Hour

// ErrMissingSecret prevents issuance without a signing secret.
var ErrMissingSecret = fmt.Errorf("jwt signing secret is not set: %w", apperr.ErrConfiguration)

var ttlPattern = regexp.MustCompile(`(?i)^(\d+)([smhdwy])?$`)

var unitSeconds = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
	"w": 604800,
	"y": 31536000,
}

const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

// ParseTTL reads lifetimes like "3600", "15m", "24h", "7d", "1w" or "1y". A
// bare number is seconds. Anything else, including a lifetime too long to
// represent, yields DefaultTTL.
func ParseTTL(spec string) time.Duration {
	d, err := ParseTTLStrict(spec)
	if err != nil {
		return DefaultTTL
	}
	return d
}

// ParseTTLStrict is ParseTTL reporting why a value was not usable.
func ParseTTLStrict(spec string) (time.Duration, error) {
	m := ttlPattern.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return 0, fmt.Errorf("token lifetime %q is not <number>[s|m|h|d|w|y]", spec)
	}
	unit := strings.ToLower(m[2])
	if unit == "" {
		unit = "s"
	}
	mult := unitSeconds[unit]
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n > maxTTLSeconds/mult {
		return 0, fmt.Errorf("token lifetime %q exceeds %s", spec, time.Duration(math.MaxInt64))
	}
	return time.Duration(n*mult) * time.Second, nil
}

// Claims carried by a session token. Subject is the user id.
type Claims struct {
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for the user. IssuedAt and ExpiresAt are set here.
func (i *Issuer) Issue(userID, employeeID, role string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("token subject is empty: %w", apperr.ErrValidation)
	}
	now := i.now()
	claims := Claims{
		EmployeeID: employeeID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString(i.secret)
}

// Verify checks signature, algorithm and expiry. Every failure wraps
// apperr.ErrAuthentication.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", apperr.ErrAuthentication)
		}
		return nil, fmt.Errorf("invalid token: %v: %w", err, apperr.ErrAuthentication)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: %w", apperr.ErrAuthentication)
	}
	return claims, nil
}
