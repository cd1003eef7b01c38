package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/stackit/backend/internal/metrics"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

// PostKind names the two aggregates that carry a vote ledger.
type PostKind string

const (
	PostQuestion PostKind = "question"
	PostAnswer   PostKind = "answer"
)

// VotingService records votes on questions and answers.
//
// A vote is a read-modify-write of the post's ledger followed by a reputation
// change for the post author. Nothing serializes concurrent votes: the last
// ledger write wins, and every call applies its reputation delta regardless of
// what the ledger held before. Re-casting the same vote three times therefore
// leaves one ledger entry and credits the author three times.
type VotingService struct {
	store      storage.Store
	reputation *ReputationService
	clock      clockwork.Clock
}

func NewVotingService(store storage.Store, reputation *ReputationService, clock clockwork.Clock) *VotingService {
	return &VotingService{store: store, reputation: reputation, clock: clock}
}

func (s *VotingService) VoteQuestion(ctx context.Context, questionID, voterID string, dir models.VoteDirection) (*models.VoteResult, error) {
	return s.CastVote(ctx, PostQuestion, questionID, voterID, dir)
}

func (s *VotingService) VoteAnswer(ctx context.Context, answerID, voterID string, dir models.VoteDirection) (*models.VoteResult, error) {
	return s.CastVote(ctx, PostAnswer, answerID, voterID, dir)
}

// CastVote replaces voterID's vote on the post with dir and credits the post
// author. Nothing is written when the direction is invalid or the post does
// not exist. Voting on one's own post is allowed.
func (s *VotingService) CastVote(ctx context.Context, kind PostKind, postID, voterID string, dir models.VoteDirection) (*models.VoteResult, error) {
	if !dir.Valid() {
		return nil, ErrInvalidVote
	}

	ledger, authorID, save, err := s.loadPost(ctx, kind, postID)
	if err != nil {
		return nil, err
	}

	ledger.Cast(voterID, dir, s.clock.Now())
	if err := save(ledger); err != nil {
		return nil, fmt.Errorf("save %s votes: %w", kind, err)
	}
	metrics.VotesTotal.WithLabelValues(string(kind), string(dir)).Inc()

	delta := ReputationUpvote
	if dir == models.VoteDown {
		delta = ReputationDownvote
	}
	if _, err := s.reputation.Apply(ctx, authorID, delta, "vote_"+string(dir)); err != nil {
		return nil, err
	}

	return &models.VoteResult{
		VoteScore: ledger.Score(),
		HasVoted:  models.StateOf(dir),
	}, nil
}

// loadPost fetches the ledger and author of a post together with the function
// that writes the ledger back.
func (s *VotingService) loadPost(ctx context.Context, kind PostKind, id string) (models.VoteLedger, string, func(models.VoteLedger) error, error) {
	switch kind {
	case PostQuestion:
		q, err := s.store.FindQuestion(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", nil, ErrQuestionNotFound
		}
		if err != nil {
			return nil, "", nil, fmt.Errorf("load question: %w", err)
		}
		save := func(l models.VoteLedger) error { return s.store.SetQuestionVotes(ctx, id, l) }
		return q.Votes, q.AuthorID, save, nil

	case PostAnswer:
		a, err := s.store.FindAnswer(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", nil, ErrAnswerNotFound
		}
		if err != nil {
			return nil, "", nil, fmt.Errorf("load answer: %w", err)
		}
		save := func(l models.VoteLedger) error { return s.store.SetAnswerVotes(ctx, id, l) }
		return a.Votes, a.AuthorID, save, nil
	}
	return nil, "", nil, fmt.Errorf("unknown post kind %q", kind)
}
