package auth

// Credential type names reported by Credentials.Type.
const (
	CredentialTypePassword = "password"
	CredentialTypeBearer   = "bearer"
)

// Credentials is anything a caller may present for authentication. The
// resolver only validates UsernamePassword; every other shape is rejected
// before the directory is consulted.
type Credentials interface {
	Type() string
}

// UsernamePassword is the username/password pair.
type UsernamePassword struct {
	Username string
	Password string
}

// Type implements Credentials.
func (UsernamePassword) Type() string { return CredentialTypePassword }

// String never includes the password.
func (c UsernamePassword) String() string {
	return "UsernamePassword{Username: " + c.Username + "}"
}

// GoString keeps %#v from printing the password.
func (c UsernamePassword) GoString() string { return c.String() }

// BearerToken is an opaque token. The directory cannot validate it.
type BearerToken struct {
	Token string
}

// Type implements Credentials.
func (BearerToken) Type() string { return CredentialTypeBearer }

// String never includes the token.
func (BearerToken) String() string { return "BearerToken{...}" }
