package storage

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stackit/backend/internal/models"
)

func (s *MongoStore) InsertUser(ctx context.Context, u *models.User) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	_, err := s.users.InsertOne(ctx, u)
	return mapErr(err)
}

func (s *MongoStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](ctx, s.users, id)
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUserByField(ctx, "email", email)
}

func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUserByField(ctx, "username", username)
}

func (s *MongoStore) findUserByField(ctx context.Context, field, value string) (*models.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	rx := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{field: rx}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *MongoStore) FindUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	users, _, err := findPage[models.User](ctx, s.users, bson.M{"_id": bson.M{"$in": ids}}, bson.D{{Key: "_id", Value: 1}}, Window{})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *MongoStore) FindUsers(ctx context.Context, f UserFilter) ([]*models.User, int64, error) {
	filter := bson.M{}
	if f.ActiveOnly {
		filter["is_active"] = true
	}
	if f.InactiveOnly {
		filter["is_active"] = false
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if !f.CreatedAfter.IsZero() {
		filter["joined_at"] = bson.M{"$gte": f.CreatedAfter}
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		or := bson.A{bson.M{"username": rx}, bson.M{"bio": rx}}
		if f.SearchEmail {
			or = append(or, bson.M{"email": rx})
		}
		filter["$or"] = or
	}

	var order bson.D
	switch f.Sort {
	case "newest":
		order = bson.D{{Key: "joined_at", Value: -1}}
	case "oldest":
		order = bson.D{{Key: "joined_at", Value: 1}}
	case "name":
		order = bson.D{{Key: "username", Value: 1}}
	default:
		order = bson.D{{Key: "reputation", Value: -1}, {Key: "username", Value: 1}}
	}
	return findPage[models.User](ctx, s.users, filter, order, f.Window)
}

func (s *MongoStore) findOneAndUpdateUser(ctx context.Context, id string, update bson.M) (*models.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	fields := map[string]*string{
		"avatar":   req.Avatar,
		"bio":      req.Bio,
		"location": req.Location,
		"website":  req.Website,
		"github":   req.Github,
		"linkedin": req.Linkedin,
		"twitter":  req.Twitter,
	}
	for key, v := range fields {
		if v != nil {
			set[key] = *v
		}
	}
	if req.Notifications != nil {
		set["notifications"] = *req.Notifications
	}
	return s.findOneAndUpdateUser(ctx, id, bson.M{"$set": set})
}

func (s *MongoStore) IncrementReputation(ctx context.Context, id string, delta int) (*models.User, error) {
	return s.findOneAndUpdateUser(ctx, id, bson.M{
		"$inc": bson.M{"reputation": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *MongoStore) PushBadges(ctx context.Context, id string, badges []models.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	names := make([]string, len(badges))
	for i, b := range badges {
		names[i] = b.Name
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	// All badges land in one update. The filter makes a concurrent award of
	// any of them a no-op.
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id, "badges.name": bson.M{"$nin": names}},
		bson.M{
			"$push": bson.M{"badges": bson.M{"$each": badges}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

func (s *MongoStore) SetRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	return s.findOneAndUpdateUser(ctx, id, bson.M{
		"$set": bson.M{"role": role, "updated_at": time.Now().UTC()},
	})
}

func (s *MongoStore) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	return s.findOneAndUpdateUser(ctx, id, bson.M{
		"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()},
	})
}
