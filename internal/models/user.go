package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Badge is an award earned by crossing a reputation threshold. Badges are
// never revoked.
type Badge struct {
	Name     string    `json:"name" bson:"name"`
	Icon     string    `json:"icon" bson:"icon"`
	Color    string    `json:"color" bson:"color"`
	EarnedAt time.Time `json:"earnedAt" bson:"earned_at"`
}

type NotificationPrefs struct {
	Email bool `json:"email" bson:"email"`
	Push  bool `json:"push" bson:"push"`
}

type User struct {
	ID            string            `json:"id" bson:"_id"`
	Username      string            `json:"username" bson:"username"`
	Email         string            `json:"email,omitempty" bson:"email"`
	PasswordHash  string            `json:"-" bson:"password_hash"`
	Avatar        string            `json:"avatar" bson:"avatar"`
	Bio           string            `json:"bio" bson:"bio"`
	Reputation    int               `json:"reputation" bson:"reputation"`
	Badges        []Badge           `json:"badges" bson:"badges"`
	Role          Role              `json:"role" bson:"role"`
	IsActive      bool              `json:"isActive" bson:"is_active"`
	Location      string            `json:"location,omitempty" bson:"location,omitempty"`
	Website       string            `json:"website,omitempty" bson:"website,omitempty"`
	Github        string            `json:"github,omitempty" bson:"github,omitempty"`
	Linkedin      string            `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Twitter       string            `json:"twitter,omitempty" bson:"twitter,omitempty"`
	Notifications NotificationPrefs `json:"notifications" bson:"notifications"`
	JoinedAt      time.Time         `json:"joinedAt" bson:"joined_at"`
	LastSeen      time.Time         `json:"lastSeen" bson:"last_seen"`
	CreatedAt     time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time         `json:"updatedAt" bson:"updated_at"`
}

// HasBadge reports whether a badge called name was already earned.
func (u *User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// UserSummary is the author block embedded in question and answer payloads.
type UserSummary struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Avatar     string  `json:"avatar"`
	Reputation int     `json:"reputation"`
	Badges     []Badge `json:"badges"`
	Role       Role    `json:"role"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	badges := u.Badges
	if badges == nil {
		badges = []Badge{}
	}
	return &UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		Avatar:     u.Avatar,
		Reputation: u.Reputation,
		Badges:     badges,
		Role:       u.Role,
	}
}

// Public strips the fields that only the account owner may see.
func (u *User) Public() *User {
	cp := *u
	cp.Email = ""
	cp.PasswordHash = ""
	if cp.Badges == nil {
		cp.Badges = []Badge{}
	}
	return &cp
}

type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=30"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	RecaptchaToken string `json:"recaptchaToken"`
}

func (r *RegisterRequest) Validate() map[string]string {
	return validateStruct(r, map[string]string{
		"username.required": "Username is required",
		"username.min":      "Username must be 3-30 characters",
		"username.max":      "Username must be 3-30 characters",
		"email.required":    "Email is required",
		"password.required": "Password is required",
		"password.min":      "Password must be at least 6 characters",
	})
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,user_role"`
}

func (r *UpdateRoleRequest) Validate() map[string]string {
	return validateStruct(r, map[string]string{
		"role.required":  "Role is required",
		"role.user_role": "Invalid role",
	})
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (r *UpdateStatusRequest) Validate() map[string]string {
	return validateStruct(r, map[string]string{
		"isActive.required": "isActive is required",
	})
}

// UserStats summarizes a user's activity on their profile page.
type UserStats struct {
	TotalQuestions  int64   `json:"totalQuestions"`
	TotalAnswers    int64   `json:"totalAnswers"`
	AcceptedAnswers int64   `json:"acceptedAnswers"`
	AcceptanceRate  float64 `json:"acceptanceRate"`
}

type UserProfile struct {
	*User
	Stats           UserStats       `json:"stats"`
	RecentQuestions []*QuestionView `json:"recentQuestions"`
	RecentAnswers   []*AnswerView   `json:"recentAnswers"`
}
