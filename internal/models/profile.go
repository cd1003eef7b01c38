package models

import "strings"

// UpdateProfileRequest is the body of PUT /users/me. Omitted fields keep
// their stored value; an empty string clears a field.
type UpdateProfileRequest struct {
	Avatar        *string            `json:"avatar" validate:"omitempty,url,max=500"`
	Bio           *string            `json:"bio" validate:"omitempty,max=500"`
	Location      *string            `json:"location" validate:"omitempty,max=100"`
	Website       *string            `json:"website" validate:"omitempty,url,max=200"`
	Github        *string            `json:"github" validate:"omitempty,max=100"`
	Linkedin      *string            `json:"linkedin" validate:"omitempty,max=100"`
	Twitter       *string            `json:"twitter" validate:"omitempty,max=100"`
	Notifications *NotificationPrefs `json:"notifications"`
}

func (r *UpdateProfileRequest) Validate() map[string]string {
	for _, f := range []*string{r.Avatar, r.Bio, r.Location, r.Website, r.Github, r.Linkedin, r.Twitter} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	return validateStruct(r, map[string]string{
		"avatar.url":  "Avatar must be a URL",
		"bio.max":     "Bio must be at most 500 characters",
		"website.url": "Website must be a URL",
	})
}

// Apply copies the fields present in r onto u.
func (r *UpdateProfileRequest) Apply(u *User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Avatar, r.Avatar)
	set(&u.Bio, r.Bio)
	set(&u.Location, r.Location)
	set(&u.Website, r.Website)
	set(&u.Github, r.Github)
	set(&u.Linkedin, r.Linkedin)
	set(&u.Twitter, r.Twitter)
	if r.Notifications != nil {
		u.Notifications = *r.Notifications
	}
}
