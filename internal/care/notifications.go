package care

import (
	"context"
	"sort"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// MaxNotifications caps every notification listing.
const MaxNotifications = 100

const defaultPriority = "normal"

type NotificationInput struct {
	UserID            string `json:"userId"`
	UserRole          string `json:"userRole"`
	Type              string `json:"type"`
	Title             string `json:"title"`
	Message           string `json:"message"`
	Priority          string `json:"priority"`
	ActionRequired    bool   `json:"actionRequired"`
	ActionURL         string `json:"actionUrl"`
	RelatedEntityID   string `json:"relatedEntityId"`
	RelatedEntityType string `json:"relatedEntityType"`
}

type NotificationFilter struct {
	UserID   string
	UserRole string
	IsRead   *bool
}

type NotificationService struct {
	store Store
}

func NewNotificationService(s Store) *NotificationService {
	return &NotificationService{store: s}
}

// Create stores an unread notification; priority defaults to normal.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (*models.Notification, error) {
	if in.UserRole != "" && !models.ValidRole(in.UserRole) {
		return nil, &apperr.FieldError{Field: "userRole", Message: "unknown role"}
	}
	if in.Priority == "" {
		in.Priority = defaultPriority
	}
	n := &models.Notification{
		UserID:            in.UserID,
		UserRole:          in.UserRole,
		Type:              in.Type,
		Title:             in.Title,
		Message:           in.Message,
		Priority:          in.Priority,
		ActionRequired:    in.ActionRequired,
		IsRead:            false,
		ActionURL:         in.ActionURL,
		RelatedEntityID:   in.RelatedEntityID,
		RelatedEntityType: in.RelatedEntityType,
	}
	row, err := models.ToRow(models.NotificationSchema, n)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.Insert(ctx, models.CollectionNotifications, row)
	if err != nil {
		return nil, err
	}
	return decodeRow[models.Notification](saved)
}

// List returns up to MaxNotifications matches, newest first.
func (s *NotificationService) List(ctx context.Context, f NotificationFilter) ([]*models.Notification, error) {
	filter := store.Filter{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.UserRole != "" {
		filter["user_role"] = f.UserRole
	}
	if f.IsRead != nil {
		filter["is_read"] = *f.IsRead
	}
	rows, err := s.store.QueryAll(ctx, models.CollectionNotifications, filter)
	if err != nil {
		return nil, err
	}
	all, err := decodeRows[models.Notification](rows)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return newer(all[i].CreatedAt, all[j].CreatedAt) })
	if len(all) > MaxNotifications {
		all = all[:MaxNotifications]
	}
	return all, nil
}

func (s *NotificationService) ForRole(ctx context.Context, role string) ([]*models.Notification, error) {
	return s.List(ctx, NotificationFilter{UserRole: role})
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	row, err := s.store.Update(ctx, models.CollectionNotifications, id, store.Row{"is_read": true})
	if err != nil {
		return nil, err
	}
	return decodeRow[models.Notification](row)
}
