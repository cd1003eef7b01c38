package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/stackit/backend/internal/metrics"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

// Notifier publishes payload on a live-push channel. Delivery is best effort
// and nothing is retried.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Mailer sends the email copy of a notification.
type Mailer interface {
	SendNotificationEmail(ctx context.Context, to, subject, body string) error
}

const emailTimeout = 15 * time.Second

type NotificationService struct {
	store    storage.Store
	notifier Notifier
	mailer   Mailer
	clock    clockwork.Clock
	baseURL  string
}

// NewNotificationService wires the dispatcher. notifier and mailer may be nil.
func NewNotificationService(store storage.Store, notifier Notifier, mailer Mailer, clock clockwork.Clock) *NotificationService {
	return &NotificationService{store: store, notifier: notifier, mailer: mailer, clock: clock}
}

// WithBaseURL sets the site URL prefixed to links in emails.
func (s *NotificationService) WithBaseURL(u string) *NotificationService {
	s.baseURL = u
	return s
}

// Notify persists n and pushes it to the recipient's live channel. Failures
// are logged and counted but never returned: the operation that produced the
// notification has already succeeded.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	now := s.clock.Now()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.IsRead = false
	n.CreatedAt = now
	n.UpdatedAt = now

	if err := s.store.InsertNotification(ctx, n); err != nil {
		metrics.NotificationDeliveryFailures.WithLabelValues("store").Inc()
		slog.Error("persist notification failed", "recipient", n.Recipient, "type", n.Type, "error", err)
		return
	}
	metrics.NotificationsCreatedTotal.WithLabelValues(string(n.Type)).Inc()

	s.push(ctx, n)
	s.email(ctx, n)
}

func (s *NotificationService) push(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	payload, err := json.Marshal(models.NotificationEvent{Event: "notification", Data: n})
	if err != nil {
		slog.Error("encode notification event failed", "error", err)
		return
	}
	if err := s.notifier.Publish(ctx, models.UserChannel(n.Recipient), payload); err != nil {
		metrics.NotificationDeliveryFailures.WithLabelValues("push").Inc()
		slog.Warn("live push failed", "recipient", n.Recipient, "error", err)
	}
}

// email sends the copy in the background so a slow mail API never delays
// the request that produced the notification.
func (s *NotificationService) email(ctx context.Context, n *models.Notification) {
	if s.mailer == nil {
		return
	}
	u, err := s.store.FindUser(ctx, n.Recipient)
	if err != nil || !u.Notifications.Email || u.Email == "" {
		return
	}

	subject := n.Title
	body := n.Message
	if n.Link != "" {
		body += "\n\n" + s.baseURL + n.Link
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailTimeout)
		defer cancel()
		if err := s.mailer.SendNotificationEmail(ctx, u.Email, subject, body); err != nil {
			metrics.NotificationDeliveryFailures.WithLabelValues("email").Inc()
			slog.Warn("notification email failed", "recipient", n.Recipient, "error", err)
		}
	}()
}

func (s *NotificationService) List(ctx context.Context, recipient string, page, limit int, unreadOnly bool) (*models.NotificationList, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.store.FindNotifications(ctx, storage.NotificationFilter{
		Recipient:  recipient,
		UnreadOnly: unreadOnly,
		Window:     pageWindow(page, limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.store.CountUnread(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	return &models.NotificationList{
		Notifications: items,
		Pagination:    models.NewPagination(page, limit, total),
		UnreadCount:   unread,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	n, err := s.store.CountUnread(ctx, recipient)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, recipient, id string) (*models.Notification, error) {
	n, err := s.store.MarkRead(ctx, recipient, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, recipient)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, recipient, id string) error {
	err := s.store.DeleteNotification(ctx, recipient, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
