// Package auth verifies credentials and issues session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/passwords"
	"github.com/carelink/carelink/backend/go-services/internal/tokens"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
	"github.com/carelink/carelink/backend/go-services/pkg/metrics"
)

// ErrInvalidCredentials is the single failure callers see for an unknown
// user, a wrong password or an inactive account.
var ErrInvalidCredentials = apperr.ErrAuthentication

// UserLookup finds an active account by username.
type UserLookup interface {
	FindActiveByUsername(ctx context.Context, username, employeeID string) (*models.User, error)
}

// Service runs the login pipeline: lookup, verify, issue.
type Service struct {
	users    UserLookup
	verifier *passwords.Verifier
	issuer   *tokens.Issuer
	log      logger.Component
}

func NewService(users UserLookup, verifier *passwords.Verifier, issuer *tokens.Issuer) *Service {
	return &Service{users: users, verifier: verifier, issuer: issuer, log: logger.Named("auth")}
}

// LoginRequest carries the submitted credentials. EmployeeID is optional and
// must match the account when given.
type LoginRequest struct {
	Username   string
	Password   string
	EmployeeID string
}

// SessionUser is the profile returned with a token.
type SessionUser struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, &apperr.FieldError{Field: "username", Message: "is required"}
	}
	if req.Password == "" {
		return nil, &apperr.FieldError{Field: "password", Message: "is required"}
	}

	u, err := s.users.FindActiveByUsername(ctx, req.Username, req.EmployeeID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Infof("login rejected: no active user %q", req.Username)
			metrics.Logins.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		s.log.Errorf("login lookup failed: %v", err)
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	if !u.IsActive || !s.verifier.Verify(req.Password, u.PasswordHash) {
		s.log.Infof("login rejected: bad password for %q", req.Username)
		metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(u.ID, u.EmployeeID, u.Role)
	if err != nil {
		s.log.Errorf("token issue failed: %v", err)
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue token: %w", err)
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return &LoginResult{
		Token: tok,
		User: SessionUser{
			ID:            u.ID,
			EmployeeID:    u.EmployeeID,
			Name:          u.Name,
			Role:          u.Role,
			ContactNumber: u.ContactNumber,
			Email:         u.Email,
		},
	}, nil
}
