package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/stackit/backend/internal/models"
)

func (s *MongoStore) InsertAnswer(ctx context.Context, a *models.Answer) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	_, err := s.answers.InsertOne(ctx, a)
	return mapErr(err)
}

func (s *MongoStore) FindAnswer(ctx context.Context, id string) (*models.Answer, error) {
	return findByID[models.Answer](ctx, s.answers, id)
}

func (s *MongoStore) FindAnswers(ctx context.Context, f AnswerFilter) ([]*models.Answer, int64, error) {
	filter := bson.M{}
	order := bson.D{{Key: "created_at", Value: -1}}
	if f.QuestionID != "" {
		filter["question"] = f.QuestionID
		order = bson.D{{Key: "created_at", Value: 1}}
	}
	if f.AuthorID != "" {
		filter["author"] = f.AuthorID
	}
	if f.AcceptedOnly {
		filter["is_accepted"] = true
	}
	if !f.CreatedAfter.IsZero() {
		filter["created_at"] = bson.M{"$gte": f.CreatedAfter}
	}
	return findPage[models.Answer](ctx, s.answers, filter, order, f.Window)
}

func (s *MongoStore) SetAnswerVotes(ctx context.Context, id string, votes models.VoteLedger) error {
	return updateByID(ctx, s.answers, id, bson.M{
		"$set": bson.M{"votes": votes, "updated_at": time.Now().UTC()},
	})
}

func (s *MongoStore) SetAnswerAccepted(ctx context.Context, id string, accepted bool) error {
	return updateByID(ctx, s.answers, id, bson.M{
		"$set": bson.M{"is_accepted": accepted, "updated_at": time.Now().UTC()},
	})
}

func (s *MongoStore) DeleteAnswer(ctx context.Context, id string) error {
	return deleteOne(ctx, s.answers, bson.M{"_id": id})
}

func (s *MongoStore) DeleteAnswersByQuestion(ctx context.Context, questionID string) (int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.answers.DeleteMany(ctx, bson.M{"question": questionID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
