package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on one MongoDB database.
type MongoStore struct {
	client        *mongo.Client
	db            *mongo.Database
	questions     *mongo.Collection
	answers       *mongo.Collection
	users         *mongo.Collection
	tags          *mongo.Collection
	notifications *mongo.Collection
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string) (*MongoStore, error) {
	if mongoURI == "" || dbName == "" {
		return nil, errors.New("mongo uri and database name are required")
	}

	opts := options.Client().ApplyURI(mongoURI)
	// Atlas intermittently fails TLS negotiation above 1.2.
	if strings.HasPrefix(mongoURI, "mongodb+srv://") || strings.Contains(mongoURI, "tls=true") {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:        client,
		db:            db,
		questions:     db.Collection("questions"),
		answers:       db.Collection("answers"),
		users:         db.Collection("users"),
		tags:          db.Collection("tags"),
		notifications: db.Collection("notifications"),
	}
	s.ensureIndexes(ctx)

	slog.Info("MongoDB connected", "db", dbName)
	return s, nil
}

// ensureIndexes is best effort: a failure is logged and startup continues.
func (s *MongoStore) ensureIndexes(ctx context.Context) {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.questions: {
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "content", Value: "text"}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		s.answers: {
			{Keys: bson.D{{Key: "question", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
		},
		s.users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "reputation", Value: -1}}},
		},
		s.tags: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "question_count", Value: -1}}},
		},
		s.notifications: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "is_read", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			slog.Warn("create indexes failed", "collection", coll.Name(), "error", err)
		}
	}
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// opCtx bounds a single round trip the way every Mongo call in this package is bounded.
func opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultTimeout)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func findOptions(sort bson.D, w Window) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if w.Skip > 0 {
		opts.SetSkip(w.Skip)
	}
	if w.Limit > 0 {
		opts.SetLimit(w.Limit)
	}
	return opts
}

// findPage runs filter against coll and returns one page of results plus the
// total number of matches.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, w Window) ([]*T, int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cur, err := coll.Find(ctx, filter, findOptions(sort, w))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := make([]*T, 0)
	for cur.Next(ctx) {
		var doc T
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, &doc)
	}
	return out, total, cur.Err()
}

func updateByID(ctx context.Context, coll *mongo.Collection, id string, update bson.M) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var doc T
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return &doc, nil
}

// deleteOne removes the single document matching filter.
func deleteOne(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
