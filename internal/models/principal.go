package models

import "slices"

// Principal is the outcome of a successful authentication. It is only built
// through NewPrincipal; the zero value reports IsAuthenticated() == false.
type Principal struct {
	user          *User
	authorities   []string
	authenticated bool
}

// NewPrincipal wraps a resolved user. The password is stripped.
func NewPrincipal(user *User, authorities []string) *Principal {
	return &Principal{
		user:          user.WithoutPassword(),
		authorities:   slices.Clone(authorities),
		authenticated: true,
	}
}

// Name returns the username.
func (p *Principal) Name() string {
	if p == nil || p.user == nil {
		return ""
	}
	return p.user.Username
}

// User returns a copy of the resolved user record.
func (p *Principal) User() *User {
	if p == nil {
		return nil
	}
	return p.user.Clone()
}

// Authorities returns the mapped authority names.
func (p *Principal) Authorities() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.authorities)
}

// HasAuthority reports whether the principal was granted authority.
func (p *Principal) HasAuthority(authority string) bool {
	return p != nil && slices.Contains(p.authorities, authority)
}

// IsAuthenticated is true for every principal built by NewPrincipal.
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.authenticated
}
