package models

import "slices"

// User is a directory account. Membership is recorded here and nowhere else.
type User struct {
	Username    string   `json:"username"`
	Password    string   `json:"-"` // never serialized by the API layer
	Enabled     bool     `json:"enabled"`
	DisplayName string   `json:"display_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Groups      []string `json:"groups"`
}

// NewUser returns an enabled user with no groups.
func NewUser(username string) *User {
	return &User{Username: username, Enabled: true}
}

// InGroup reports whether the user is a member of group.
func (u *User) InGroup(group string) bool {
	return slices.Contains(u.Groups, group)
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Groups = slices.Clone(u.Groups)
	return &c
}

// WithoutPassword returns a copy safe to hand out of the directory layer.
func (u *User) WithoutPassword() *User {
	c := u.Clone()
	if c != nil {
		c.Password = ""
	}
	return c
}
