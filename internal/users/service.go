package users

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/passwords"
	"github.com/carelink/carelink/backend/go-services/internal/store"
)

const minPasswordLen = 6

// Messages returned for duplicate unique fields.
const (
	MsgEmployeeIDTaken = "Employee ID already exists"
	MsgUsernameTaken   = "Username already exists"
)

// Service encapsulates user-related business logic
type Service struct {
	repo *Repository
	hash func(string) (string, error)
}

func NewService(r *Repository) *Service {
	return &Service{repo: r, hash: passwords.Hash}
}

// CreateInput is an administrative "create user" request.
type CreateInput struct {
	EmployeeID    string
	Username      string
	Password      string
	Name          string
	Role          string
	ContactNumber string
	Email         string
	CreatedBy     string
}

func (in CreateInput) validate() error {
	required := []struct{ field, value string }{
		{"employeeId", in.EmployeeID},
		{"username", in.Username},
		{"password", in.Password},
		{"name", in.Name},
		{"role", in.Role},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &apperr.FieldError{Field: r.field, Message: "is required"}
		}
	}
	if len(in.Password) < minPasswordLen {
		return &apperr.FieldError{Field: "password", Message: "must be at least 6 characters"}
	}
	if !models.ValidRole(in.Role) {
		return &apperr.FieldError{Field: "role", Message: "must be one of anganwadi_worker, supervisor, hospital, admin"}
	}
	return nil
}

// Create validates, hashes the password and stores a new active user.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = "ADMIN"
	}
	u := &models.User{
		EmployeeID:    strings.TrimSpace(in.EmployeeID),
		Username:      NormalizeUsername(in.Username),
		Name:          strings.TrimSpace(in.Name),
		Role:          in.Role,
		ContactNumber: in.ContactNumber,
		Email:         in.Email,
		PasswordHash:  hash,
		IsActive:      true,
		CreatedBy:     createdBy,
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, conflictMessage(err)
	}
	return created, nil
}

func conflictMessage(err error) error {
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		return err
	}
	switch ce.Field {
	case "employee_id":
		return &apperr.FieldError{Field: "employeeId", Message: MsgEmployeeIDTaken}
	case "username":
		return &apperr.FieldError{Field: "username", Message: MsgUsernameTaken}
	}
	return err
}

// UpdateInput carries the mutable profile fields; nil means unchanged.
type UpdateInput struct {
	Name          *string
	Role          *string
	ContactNumber *string
	Email         *string
	IsActive      *bool
	Password      *string
}

// Update applies a profile change. A new password is re-hashed.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.User, error) {
	patch := store.Row{}
	if in.Name != nil {
		patch["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		if !models.ValidRole(*in.Role) {
			return nil, &apperr.FieldError{Field: "role", Message: "must be one of anganwadi_worker, supervisor, hospital, admin"}
		}
		patch["role"] = *in.Role
	}
	if in.ContactNumber != nil {
		patch["contact_number"] = *in.ContactNumber
	}
	if in.Email != nil {
		patch["email"] = *in.Email
	}
	if in.IsActive != nil {
		patch["is_active"] = *in.IsActive
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			return nil, &apperr.FieldError{Field: "password", Message: "must be at least 6 characters"}
		}
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		patch["password_hash"] = hash
	}
	if len(patch) == 0 {
		return nil, &apperr.FieldError{Field: "body", Message: "no updatable fields"}
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

// List returns every user, newest first.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].CreatedAt, list[j].CreatedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	return list, nil
}

// Delete soft-deletes the user.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}
