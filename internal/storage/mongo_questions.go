package storage

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stackit/backend/internal/models"
)

func (s *MongoStore) InsertQuestion(ctx context.Context, q *models.Question) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	_, err := s.questions.InsertOne(ctx, q)
	return mapErr(err)
}

func (s *MongoStore) FindQuestion(ctx context.Context, id string) (*models.Question, error) {
	return findByID[models.Question](ctx, s.questions, id)
}

func (s *MongoStore) FindQuestions(ctx context.Context, f QuestionFilter) ([]*models.Question, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Tag != "" {
		filter["tags"] = strings.ToLower(f.Tag)
	}
	if f.Featured {
		filter["featured"] = true
	}
	if f.AuthorID != "" {
		filter["author"] = f.AuthorID
	}
	if !f.CreatedAfter.IsZero() {
		filter["created_at"] = bson.M{"$gte": f.CreatedAfter}
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		// Case-insensitive substring, same as MemoryStore.
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"title": rx}, bson.M{"content": rx}}
	}

	order := bson.D{{Key: "created_at", Value: -1}}
	switch f.Sort {
	case models.SortOldest:
		order = bson.D{{Key: "created_at", Value: 1}}
	case models.SortViews:
		order = bson.D{{Key: "views", Value: -1}, {Key: "created_at", Value: -1}}
	case models.SortAnswers, models.SortVotes:
		// Both keys are derived from arrays, so the ordering happens here
		// rather than in the query.
		all, total, err := findPage[models.Question](ctx, s.questions, filter, order, Window{})
		if err != nil {
			return nil, 0, err
		}
		sortQuestionsByDerived(all, f.Sort)
		return window(all, f.Window), total, nil
	}

	return findPage[models.Question](ctx, s.questions, filter, order, f.Window)
}

func sortQuestionsByDerived(qs []*models.Question, by models.QuestionSort) {
	key := func(q *models.Question) int {
		if by == models.SortAnswers {
			return len(q.Answers)
		}
		return q.Votes.Up()
	}
	// Input is newest first; a stable sort keeps that as the tie-break.
	sort.SliceStable(qs, func(i, j int) bool { return key(qs[i]) > key(qs[j]) })
}

func (s *MongoStore) SetQuestionVotes(ctx context.Context, id string, votes models.VoteLedger) error {
	return updateByID(ctx, s.questions, id, bson.M{
		"$set": bson.M{"votes": votes, "updated_at": time.Now().UTC()},
	})
}

func (s *MongoStore) PushAnswer(ctx context.Context, questionID, answerID string) error {
	return updateByID(ctx, s.questions, questionID, bson.M{
		"$push": bson.M{"answers": answerID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *MongoStore) PullAnswer(ctx context.Context, questionID, answerID string, clearAccepted bool) error {
	update := bson.M{
		"$pull": bson.M{"answers": answerID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	if clearAccepted {
		update["$unset"] = bson.M{"accepted_answer": ""}
	}
	return updateByID(ctx, s.questions, questionID, update)
}

func (s *MongoStore) SetAcceptedAnswer(ctx context.Context, questionID, answerID string) error {
	return updateByID(ctx, s.questions, questionID, bson.M{
		"$set": bson.M{"accepted_answer": answerID, "updated_at": time.Now().UTC()},
	})
}

func (s *MongoStore) IncrementViews(ctx context.Context, id string) error {
	return updateByID(ctx, s.questions, id, bson.M{"$inc": bson.M{"views": 1}})
}

func (s *MongoStore) SetQuestionFeatured(ctx context.Context, id string, featured bool) (*models.Question, error) {
	if err := updateByID(ctx, s.questions, id, bson.M{
		"$set": bson.M{"featured": featured, "updated_at": time.Now().UTC()},
	}); err != nil {
		return nil, err
	}
	return s.FindQuestion(ctx, id)
}

func (s *MongoStore) DeleteQuestion(ctx context.Context, id string) error {
	return deleteOne(ctx, s.questions, bson.M{"_id": id})
}
