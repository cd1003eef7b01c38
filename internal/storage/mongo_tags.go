package storage

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stackit/backend/internal/models"
)

func (s *MongoStore) InsertTag(ctx context.Context, t *models.Tag) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	_, err := s.tags.InsertOne(ctx, t)
	return mapErr(err)
}

func (s *MongoStore) FindTag(ctx context.Context, name string) (*models.Tag, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var t models.Tag
	if err := s.tags.FindOne(ctx, bson.M{"name": name}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *MongoStore) FindTags(ctx context.Context, f TagFilter) ([]*models.Tag, int64, error) {
	filter := bson.M{}
	if search := strings.TrimSpace(f.Search); search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(strings.ToLower(search))}
	}

	var order bson.D
	switch f.Sort {
	case "newest":
		order = bson.D{{Key: "created_at", Value: -1}}
	case "name":
		order = bson.D{{Key: "name", Value: 1}}
	default:
		order = bson.D{{Key: "question_count", Value: -1}, {Key: "name", Value: 1}}
	}
	return findPage[models.Tag](ctx, s.tags, filter, order, f.Window)
}

func (s *MongoStore) UpdateTag(ctx context.Context, t *models.Tag) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.tags.UpdateOne(ctx, bson.M{"name": t.Name}, bson.M{"$set": bson.M{
		"description": t.Description,
		"color":       t.Color,
		"featured":    t.Featured,
		"moderators":  t.Moderators,
		"updated_at":  time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) IncrementQuestionCount(ctx context.Context, name string, delta int, upsert bool) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$inc": bson.M{"question_count": delta},
		"$set": bson.M{"updated_at": now},
	}
	if upsert {
		update["$setOnInsert"] = bson.M{
			"_id":         uuid.New().String(),
			"description": "",
			"color":       models.DefaultTagColor,
			"followers":   []string{},
			"moderators":  []string{},
			"featured":    false,
			"created_at":  now,
		}
	}
	_, err := s.tags.UpdateOne(ctx, bson.M{"name": name}, update, options.Update().SetUpsert(upsert))
	return mapErr(err)
}

func (s *MongoStore) ToggleFollower(ctx context.Context, name, userID string) (*models.FollowResult, error) {
	t, err := s.FindTag(ctx, name)
	if err != nil {
		return nil, err
	}

	following := false
	for _, f := range t.Followers {
		if f == userID {
			following = true
			break
		}
	}

	op := "$addToSet"
	if following {
		op = "$pull"
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Tag
	err = s.tags.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{op: bson.M{"followers": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, mapErr(err)
	}
	return &models.FollowResult{IsFollowing: !following, FollowerCount: len(updated.Followers)}, nil
}
