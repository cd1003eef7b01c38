package services

import "errors"

var (
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAnswerNotFound       = errors.New("answer not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTagNotFound          = errors.New("tag not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrNotQuestionAuthor = errors.New("only the question author can accept answers")
	ErrNotAuthorized     = errors.New("not authorized to perform this action")
	ErrAccountDisabled   = errors.New("account is deactivated")

	ErrInvalidVote    = errors.New("vote type must be 'up' or 'down'")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidTags    = errors.New("must have 1-5 tags")
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")
	ErrTagExists      = errors.New("tag already exists")
	ErrRecaptcha      = errors.New("recaptcha verification failed")
)
