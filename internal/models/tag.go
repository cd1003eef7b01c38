package models

import (
	"strings"
	"time"
)

const DefaultTagColor = "#6B7280"

type Tag struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Description   string    `json:"description" bson:"description"`
	Color         string    `json:"color" bson:"color"`
	QuestionCount int       `json:"questionCount" bson:"question_count"`
	Followers     []string  `json:"followers" bson:"followers"`
	Moderators    []string  `json:"moderators" bson:"moderators"`
	Featured      bool      `json:"featured" bson:"featured"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

type CreateTagRequest struct {
	Name        string `json:"name" validate:"required,max=35"`
	Description string `json:"description" validate:"max=500"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

func (r *CreateTagRequest) Validate() map[string]string {
	r.Name = strings.ToLower(strings.TrimSpace(r.Name))
	return validateStruct(r, map[string]string{
		"name.required":   "Tag name is required",
		"description.max": "Description must be at most 500 characters",
		"color.hexcolor":  "Color must be a hex color",
	})
}

type UpdateTagRequest struct {
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Featured    *bool   `json:"featured"`
}

func (r *UpdateTagRequest) Validate() map[string]string {
	return validateStruct(r, map[string]string{
		"description.max": "Description must be at most 500 characters",
		"color.hexcolor":  "Color must be a hex color",
	})
}

type TagDetail struct {
	Tag        *Tag            `json:"tag"`
	Questions  []*QuestionView `json:"questions"`
	Pagination Pagination      `json:"pagination"`
}

type FollowResult struct {
	IsFollowing   bool `json:"isFollowing"`
	FollowerCount int  `json:"followerCount"`
}
