// internal/services/notification_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mcgboard/permits-backend/internal/models"
)

// NotificationSink delivers messages to users. Delivery is best-effort,
// at-least-once; callers never depend on delivery success.
type NotificationSink interface {
	Notify(ctx context.Context, recipients []models.User, notifType models.NotificationType, message, link string)
	NotifyStaff(ctx context.Context, notifType models.NotificationType, message, link string)
}

// NotificationService persists a notification row per recipient and publishes
// a real-time event on the recipient's redis channel.
type NotificationService struct {
	db    *gorm.DB
	redis redis.UniversalClient
	log   *logrus.Logger
}

type notificationEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotificationService(db *gorm.DB, rdb redis.UniversalClient, log *logrus.Logger) *NotificationService {
	return &NotificationService{db: db, redis: rdb, log: log}
}

func userChannel(userID uuid.UUID) string {
	return fmt.Sprintf("notify:user:%s", userID)
}

func (s *NotificationService) Notify(ctx context.Context, recipients []models.User, notifType models.NotificationType, message, link string) {
	seen := make(map[uuid.UUID]bool, len(recipients))
	for _, user := range recipients {
		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true

		notif := &models.Notification{
			RecipientID: user.ID,
			Type:        notifType,
			Message:     message,
			Link:        link,
		}
		if err := s.db.WithContext(ctx).Create(notif).Error; err != nil {
			s.log.WithError(err).WithField("recipient", user.ID).Warn("failed to store notification")
			continue
		}
		s.publish(ctx, notif)
	}
}

func (s *NotificationService) NotifyStaff(ctx context.Context, notifType models.NotificationType, message, link string) {
	var staff []models.User
	err := s.db.WithContext(ctx).
		Where("role IN ? AND is_active = ?", []models.UserRole{models.UserRoleAdmin, models.UserRoleStaff}, true).
		Find(&staff).Error
	if err != nil {
		s.log.WithError(err).Warn("failed to load staff recipients")
		return
	}
	s.Notify(ctx, staff, notifType, message, link)
}

func (s *NotificationService) publish(ctx context.Context, notif *models.Notification) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(notificationEvent{
		ID:        notif.ID,
		Type:      string(notif.Type),
		Message:   notif.Message,
		Link:      notif.Link,
		CreatedAt: notif.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, userChannel(notif.RecipientID), payload).Err(); err != nil {
		s.log.WithError(err).WithField("recipient", notif.RecipientID).Debug("notification publish failed")
	}
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var notifs []models.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifs, nil
}

// MarkRead flags a notification as read; recipients can only touch their own.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notifID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notifID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: notification", ErrNotFound)
	}
	return nil
}
