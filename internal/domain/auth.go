package domain

// AuthenticatedIdentity is the request-scoped view of the caller, rebuilt on every request.
type AuthenticatedIdentity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// LoginAttempt carries submitted credentials through a single validation call.
type LoginAttempt struct {
	Email    string
	Password []byte
}

// NewLoginAttempt copies the plaintext into a buffer owned by the attempt.
func NewLoginAttempt(email, password string) *LoginAttempt {
	return &LoginAttempt{Email: email, Password: []byte(password)}
}

// Wipe zeroes the password buffer. The attempt must not be used afterwards.
func (a *LoginAttempt) Wipe() {
	if a == nil {
		return
	}
	clear(a.Password)
	a.Password = nil
}
