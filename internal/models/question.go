package models

import (
	"strings"
	"time"
)

type QuestionStatus string

const (
	QuestionOpen    QuestionStatus = "open"
	QuestionClosed  QuestionStatus = "closed"
	QuestionDeleted QuestionStatus = "deleted"
)

type Question struct {
	ID             string         `json:"id" bson:"_id"`
	Title          string         `json:"title" bson:"title"`
	Content        string         `json:"content" bson:"content"`
	AuthorID       string         `json:"author" bson:"author"`
	Tags           []string       `json:"tags" bson:"tags"`
	Votes          VoteLedger     `json:"votes" bson:"votes"`
	Answers        []string       `json:"answers" bson:"answers"`
	AcceptedAnswer string         `json:"acceptedAnswer,omitempty" bson:"accepted_answer,omitempty"`
	Views          int64          `json:"views" bson:"views"`
	Status         QuestionStatus `json:"status" bson:"status"`
	Featured       bool           `json:"featured" bson:"featured"`
	CreatedAt      time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" bson:"updated_at"`
}

// HasAnswer reports whether answerID is listed under the question.
func (q *Question) HasAnswer(answerID string) bool {
	for _, id := range q.Answers {
		if id == answerID {
			return true
		}
	}
	return false
}

// QuestionView is a question as returned to clients: the stored document plus
// the values derived per request.
type QuestionView struct {
	*Question
	Author      *UserSummary  `json:"author"`
	VoteScore   int           `json:"voteScore"`
	AnswerCount int           `json:"answerCount"`
	HasVoted    *VoteState    `json:"hasVoted"`
	AnswerViews []*AnswerView `json:"answerDetails,omitempty"`
}

type CreateQuestionRequest struct {
	Title   string   `json:"title" validate:"required,min=10,max=200"`
	Content string   `json:"content" validate:"required,min=20"`
	Tags    []string `json:"tags" validate:"required,min=1,max=5,dive,max=35"`
}

func (r *CreateQuestionRequest) Validate() map[string]string {
	r.Title = strings.TrimSpace(r.Title)
	// Counted after normalization: blank names drop out and duplicates collapse.
	r.Tags = NormalizeTags(r.Tags)
	return validateStruct(r, map[string]string{
		"title.required":   "Title is required",
		"title.min":        "Title must be at least 10 characters",
		"title.max":        "Title must be at most 200 characters",
		"content.required": "Content is required",
		"content.min":      "Content must be at least 20 characters",
		"tags.required":    "Must have 1-5 tags",
		"tags.min":         "Must have 1-5 tags",
		"tags.max":         "Must have 1-5 tags",
	})
}

// NormalizeTags lowercases, trims and de-duplicates tag names, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// QuestionSort is the ordering accepted by question listings.
type QuestionSort string

const (
	SortNewest  QuestionSort = "newest"
	SortOldest  QuestionSort = "oldest"
	SortVotes   QuestionSort = "votes"
	SortViews   QuestionSort = "views"
	SortAnswers QuestionSort = "answers"
)
