package models

import "time"

type NotificationType string

const (
	NotificationAnswer  NotificationType = "answer"
	NotificationComment NotificationType = "comment"
	NotificationVote    NotificationType = "vote"
	NotificationAccept  NotificationType = "accept"
	NotificationMention NotificationType = "mention"
	NotificationBadge   NotificationType = "badge"
	NotificationSystem  NotificationType = "system"
)

// NotificationData correlates a notification with the posts it is about.
type NotificationData struct {
	QuestionID string `json:"questionId,omitempty" bson:"question_id,omitempty"`
	AnswerID   string `json:"answerId,omitempty" bson:"answer_id,omitempty"`
	BadgeName  string `json:"badgeName,omitempty" bson:"badge_name,omitempty"`
}

type Notification struct {
	ID        string           `json:"id" bson:"_id"`
	Recipient string           `json:"recipient" bson:"recipient"`
	Sender    string           `json:"sender,omitempty" bson:"sender,omitempty"`
	Type      NotificationType `json:"type" bson:"type"`
	Title     string           `json:"title" bson:"title"`
	Message   string           `json:"message" bson:"message"`
	Link      string           `json:"link,omitempty" bson:"link,omitempty"`
	IsRead    bool             `json:"isRead" bson:"is_read"`
	Data      NotificationData `json:"data" bson:"data"`
	CreatedAt time.Time        `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" bson:"updated_at"`
}

// UserChannel is the live-push channel every session of a user listens on.
func UserChannel(userID string) string {
	return "user_" + userID
}

// NotificationEvent is the envelope published on a user channel.
type NotificationEvent struct {
	Event string        `json:"event"`
	Data  *Notification `json:"data"`
}

type NotificationList struct {
	Notifications []*Notification `json:"notifications"`
	Pagination    Pagination      `json:"pagination"`
	UnreadCount   int64           `json:"unreadCount"`
}

type UnreadCount struct {
	UnreadCount int64 `json:"unreadCount"`
}
