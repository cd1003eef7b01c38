package models

import (
	"strings"
	"time"
)

type Answer struct {
	ID         string     `json:"id" bson:"_id"`
	Content    string     `json:"content" bson:"content"`
	AuthorID   string     `json:"author" bson:"author"`
	QuestionID string     `json:"question" bson:"question"`
	Votes      VoteLedger `json:"votes" bson:"votes"`
	IsAccepted bool       `json:"isAccepted" bson:"is_accepted"`
	CreatedAt  time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updated_at"`
}

type AnswerView struct {
	*Answer
	Author    *UserSummary `json:"author"`
	VoteScore int          `json:"voteScore"`
	HasVoted  *VoteState   `json:"hasVoted"`
}

type CreateAnswerRequest struct {
	Content    string `json:"content" validate:"required,min=20"`
	QuestionID string `json:"questionId" validate:"required,uuid"`
}

func (r *CreateAnswerRequest) Validate() map[string]string {
	r.Content = strings.TrimSpace(r.Content)
	return validateStruct(r, map[string]string{
		"content.required":    "Answer content is required",
		"content.min":         "Answer must be at least 20 characters",
		"questionId.required": "Valid question ID required",
		"questionId.uuid":     "Valid question ID required",
	})
}
