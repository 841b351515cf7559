package models

import (
	"errors"
	"slices"
	"strings"
)

// ErrEmptyUsername is returned when a request carries no username.
var ErrEmptyUsername = errors.New("username must not be empty")

// ModificationRequest is the write intent for both user creation and update.
// Nil pointer fields keep the stored value on update. Groups always replaces
// the stored membership; a nil slice means no groups.
type ModificationRequest struct {
	Username    string   `json:"username"`
	Password    *string  `json:"password,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
	DisplayName *string  `json:"display_name,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Groups      []string `json:"groups"`
}

// NewModificationRequest starts a request for username with every optional
// field unset.
func NewModificationRequest(username string) *ModificationRequest {
	return &ModificationRequest{Username: username}
}

// ModificationRequestFromUser copies every field of u into a request.
func ModificationRequestFromUser(u *User) *ModificationRequest {
	password := u.Password
	enabled := u.Enabled
	displayName := u.DisplayName
	email := u.Email
	return &ModificationRequest{
		Username:    u.Username,
		Password:    &password,
		Enabled:     &enabled,
		DisplayName: &displayName,
		Email:       &email,
		Groups:      slices.Clone(u.Groups),
	}
}

// SetPassword sets the password field.
func (r *ModificationRequest) SetPassword(v string) *ModificationRequest {
	r.Password = &v
	return r
}

// SetEnabled sets the enabled flag.
func (r *ModificationRequest) SetEnabled(v bool) *ModificationRequest {
	r.Enabled = &v
	return r
}

// SetDisplayName sets the display name.
func (r *ModificationRequest) SetDisplayName(v string) *ModificationRequest {
	r.DisplayName = &v
	return r
}

// SetEmail sets the email address.
func (r *ModificationRequest) SetEmail(v string) *ModificationRequest {
	r.Email = &v
	return r
}

// SetGroups replaces the target group list.
func (r *ModificationRequest) SetGroups(groups ...string) *ModificationRequest {
	r.Groups = groups
	return r
}

// Validate checks the username and normalizes the group list.
func (r *ModificationRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return ErrEmptyUsername
	}
	r.Groups = NormalizeGroups(r.Groups)
	return nil
}

// NewUser builds the record a create call stores. Enabled defaults to true.
func (r *ModificationRequest) NewUser() *User {
	u := NewUser(r.Username)
	r.ApplyTo(u)
	return u
}

// ApplyTo merges the request into u: set fields overwrite, groups replace.
func (r *ModificationRequest) ApplyTo(u *User) {
	if r.Password != nil {
		u.Password = *r.Password
	}
	if r.Enabled != nil {
		u.Enabled = *r.Enabled
	}
	if r.DisplayName != nil {
		u.DisplayName = *r.DisplayName
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	u.Groups = NormalizeGroups(r.Groups)
}

// NormalizeGroups drops blank names and duplicates, keeping first-seen order.
func NormalizeGroups(groups []string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" || slices.Contains(out, g) {
			continue
		}
		out = append(out, g)
	}
	return out
}
