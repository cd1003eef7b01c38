package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stackit/backend/internal/models"
)

func (s *MongoStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	_, err := s.notifications.InsertOne(ctx, n)
	return mapErr(err)
}

func (s *MongoStore) FindNotifications(ctx context.Context, f NotificationFilter) ([]*models.Notification, int64, error) {
	filter := bson.M{}
	if f.Recipient != "" {
		filter["recipient"] = f.Recipient
	}
	if f.UnreadOnly {
		filter["is_read"] = false
	}
	return findPage[models.Notification](ctx, s.notifications, filter, bson.D{{Key: "created_at", Value: -1}}, f.Window)
}

func (s *MongoStore) CountUnread(ctx context.Context, recipient string) (int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	return s.notifications.CountDocuments(ctx, bson.M{"recipient": recipient, "is_read": false})
}

func (s *MongoStore) MarkRead(ctx context.Context, recipient, id string) (*models.Notification, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n models.Notification
	err := s.notifications.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&n)
	if err != nil {
		return nil, mapErr(err)
	}
	return &n, nil
}

func (s *MongoStore) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.notifications.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) DeleteNotification(ctx context.Context, recipient, id string) error {
	return deleteOne(ctx, s.notifications, bson.M{"_id": id, "recipient": recipient})
}
