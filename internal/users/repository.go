package users

import (
	"context"
	"strings"

	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// Store is the persistence gateway surface the repository needs.
type Store interface {
	Query(ctx context.Context, collection string, filter store.Filter) (store.Row, error)
	QueryAll(ctx context.Context, collection string, filter store.Filter) ([]store.Row, error)
	Insert(ctx context.Context, collection string, row store.Row) (store.Row, error)
	Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error)
	SoftDelete(ctx context.Context, collection, id string) error
}

// Repository maps user records to and from gateway rows.
type Repository struct {
	store Store
}

func NewRepository(s Store) *Repository {
	return &Repository{store: s}
}

// NormalizeUsername is applied on write and on login.
func NormalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// FindActiveByUsername returns the active user with the given username. When
// employeeID is non-empty it must match too.
func (r *Repository) FindActiveByUsername(ctx context.Context, username, employeeID string) (*models.User, error) {
	f := store.Filter{"username": NormalizeUsername(username), "is_active": true}
	if employeeID != "" {
		f["employee_id"] = strings.TrimSpace(employeeID)
	}
	row, err := r.store.Query(ctx, models.CollectionUsers, f)
	if err != nil {
		return nil, err
	}
	return decode(row)
}

func (r *Repository) Get(ctx context.Context, id string) (*models.User, error) {
	row, err := r.store.Query(ctx, models.CollectionUsers, store.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	return decode(row)
}

func (r *Repository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.store.QueryAll(ctx, models.CollectionUsers, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		u, err := decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row, err := models.ToRow(models.UserSchema, u)
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		delete(row, "id")
	}
	if u.CreatedAt == nil {
		delete(row, "created_at")
	}
	if u.UpdatedAt == nil {
		delete(row, "updated_at")
	}
	saved, err := r.store.Insert(ctx, models.CollectionUsers, row)
	if err != nil {
		return nil, err
	}
	return decode(saved)
}

func (r *Repository) Update(ctx context.Context, id string, patch store.Row) (*models.User, error) {
	row, err := r.store.Update(ctx, models.CollectionUsers, id, patch)
	if err != nil {
		return nil, err
	}
	return decode(row)
}

// Deactivate soft-deletes the user.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	return r.store.SoftDelete(ctx, models.CollectionUsers, id)
}

func decode(row store.Row) (*models.User, error) {
	var u models.User
	if err := models.FromRow(row, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
