package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackit/backend/internal/models"
)

type sentEmail struct {
	to, subject, body string
}

type chanMailer struct {
	sent chan sentEmail
}

func (m *chanMailer) SendNotificationEmail(ctx context.Context, to, subject, body string) error {
	m.sent <- sentEmail{to: to, subject: subject, body: body}
	return nil
}

func TestNotify_EmailsRecipientWhoOptedIn(t *testing.T) {
	env := newTestEnv(t)
	mailer := &chanMailer{sent: make(chan sentEmail, 1)}
	notes := NewNotificationService(env.store, env.notifier, mailer, env.clock).WithBaseURL("https://stackit.example")

	// addUser leaves email notifications off; Register turns them on.
	u := env.addUser(t, "reader", models.RoleUser)
	reg, err := env.users.Register(context.Background(), &models.RegisterRequest{
		Username: "mailme",
		Email:    "MailMe@Example.com",
		Password: "secret123",
	}, "")
	require.NoError(t, err)

	notes.Notify(context.Background(), &models.Notification{
		Recipient: reg.ID,
		Type:      models.NotificationSystem,
		Title:     "Welcome",
		Message:   "Thanks for joining",
		Link:      "/questions",
	})

	select {
	case got := <-mailer.sent:
		assert.Equal(t, "mailme@example.com", got.to)
		assert.Equal(t, "Welcome", got.subject)
		assert.Equal(t, "Thanks for joining\n\nhttps://stackit.example/questions", got.body)
	case <-time.After(2 * time.Second):
		t.Fatal("email was not sent")
	}

	notes.Notify(context.Background(), &models.Notification{
		Recipient: u.ID,
		Type:      models.NotificationSystem,
		Title:     "Quiet",
		Message:   "No mail for you",
	})
	select {
	case got := <-mailer.sent:
		t.Fatalf("unexpected email to %s", got.to)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationService_ListReadDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "reader", models.RoleUser)
	other := env.addUser(t, "other", models.RoleUser)

	for i := 0; i < 3; i++ {
		env.notifications.Notify(ctx, &models.Notification{
			Recipient: u.ID,
			Type:      models.NotificationSystem,
			Title:     "Hello",
			Message:   "Message",
		})
		env.clock.Advance(time.Second)
	}
	env.notifications.Notify(ctx, &models.Notification{Recipient: other.ID, Type: models.NotificationSystem, Title: "x", Message: "y"})

	list, err := env.notifications.List(ctx, u.ID, 1, 2, false)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 2)
	assert.EqualValues(t, 3, list.Pagination.Total)
	assert.EqualValues(t, 3, list.UnreadCount)

	first := list.Notifications[0]
	read, err := env.notifications.MarkRead(ctx, u.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = env.notifications.MarkRead(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	unread, err := env.notifications.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	onlyUnread, err := env.notifications.List(ctx, u.ID, 1, 10, true)
	require.NoError(t, err)
	assert.Len(t, onlyUnread.Notifications, 2)

	n, err := env.notifications.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	unread, err = env.notifications.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	assert.ErrorIs(t, env.notifications.Delete(ctx, other.ID, first.ID), ErrNotificationNotFound)
	require.NoError(t, env.notifications.Delete(ctx, u.ID, first.ID))
	assert.ErrorIs(t, env.notifications.Delete(ctx, u.ID, first.ID), ErrNotificationNotFound)
	assert.Len(t, env.notificationsFor(t, u.ID), 2)
}

func TestNotify_NilNotifierStillPersists(t *testing.T) {
	env := newTestEnv(t)
	notes := NewNotificationService(env.store, nil, nil, env.clock)
	u := env.addUser(t, "reader", models.RoleUser)

	notes.Notify(context.Background(), &models.Notification{Recipient: u.ID, Type: models.NotificationSystem, Title: "t", Message: "m"})

	got := env.notificationsFor(t, u.ID)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsRead)
	assert.Equal(t, env.clock.Now(), got[0].CreatedAt)
}
