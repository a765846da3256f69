package models

import (
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// Roles a user may hold.
const (
	RoleWorker     = "anganwadi_worker"
	RoleSupervisor = "supervisor"
	RoleHospital   = "hospital"
	RoleAdmin      = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleWorker, RoleSupervisor, RoleHospital, RoleAdmin:
		return true
	}
	return false
}

// User is an account that can authenticate. PasswordHash holds a bcrypt hash,
// a legacy plaintext credential or nothing (demo accounts).
type User struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employee_id"`
	Username      string     `json:"username"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	ContactNumber string     `json:"contact_number"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"password_hash"`
	IsActive      bool       `json:"is_active"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

var UserSchema = &store.Schema{
	Collection: CollectionUsers,
	Fields: []store.Field{
		{Name: "id", Kind: store.KindString},
		{Name: "employee_id", Kind: store.KindString},
		{Name: "username", Kind: store.KindString},
		{Name: "name", Kind: store.KindString},
		{Name: "role", Kind: store.KindString},
		{Name: "contact_number", Kind: store.KindString},
		{Name: "email", Kind: store.KindString},
		{Name: "password_hash", Kind: store.KindString},
		{Name: "is_active", Kind: store.KindBool},
		{Name: "created_by", Kind: store.KindString},
		{Name: "created_at", Kind: store.KindTime},
		{Name: "updated_at", Kind: store.KindTime},
	},
	Required: []string{"employee_id", "username", "name", "role"},
	Unique:   []string{"employee_id", "username"},
}

// PublicUser is the credential-free view returned to clients.
type PublicUser struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employee_id"`
	Username      string     `json:"username,omitempty"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	ContactNumber string     `json:"contact_number"`
	Email         string     `json:"email"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Public strips the credential.
func (u *User) Public() PublicUser {
	active := u.IsActive
	return PublicUser{
		ID:            u.ID,
		EmployeeID:    u.EmployeeID,
		Username:      u.Username,
		Name:          u.Name,
		Role:          u.Role,
		ContactNumber: u.ContactNumber,
		Email:         u.Email,
		IsActive:      &active,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
