package services

import (
	"context"
	"fmt"

	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

// viewBuilder turns stored posts into client views: author summaries, scores
// and the viewer's own vote state. An empty viewerID leaves hasVoted null.
type viewBuilder struct {
	users storage.Users
}

func (b viewBuilder) authors(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users, err := b.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	return users, nil
}

func voteStateFor(l models.VoteLedger, viewerID string) *models.VoteState {
	if viewerID == "" {
		return nil
	}
	st := l.StateFor(viewerID)
	return &st
}

func (b viewBuilder) questions(ctx context.Context, qs []*models.Question, viewerID string) ([]*models.QuestionView, error) {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.AuthorID)
	}
	authors, err := b.authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.QuestionView, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionView(q, authors[q.AuthorID], viewerID))
	}
	return out, nil
}

func questionView(q *models.Question, author *models.User, viewerID string) *models.QuestionView {
	if q.Answers == nil {
		q.Answers = []string{}
	}
	return &models.QuestionView{
		Question:    q,
		Author:      author.Summary(),
		VoteScore:   q.Votes.Score(),
		AnswerCount: len(q.Answers),
		HasVoted:    voteStateFor(q.Votes, viewerID),
	}
}

func (b viewBuilder) answers(ctx context.Context, as []*models.Answer, viewerID string) ([]*models.AnswerView, error) {
	ids := make([]string, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.AuthorID)
	}
	authors, err := b.authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.AnswerView, 0, len(as))
	for _, a := range as {
		out = append(out, &models.AnswerView{
			Answer:    a,
			Author:    authors[a.AuthorID].Summary(),
			VoteScore: a.Votes.Score(),
			HasVoted:  voteStateFor(a.Votes, viewerID),
		})
	}
	return out, nil
}
