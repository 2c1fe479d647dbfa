package domain

import "time"

// Role enumerates the access levels carried in session tokens.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// RoleFor maps the superuser flag of a credential record to a role.
func RoleFor(isSuperuser bool) Role {
	if isSuperuser {
		return RoleAdmin
	}
	return RoleUser
}

// User is the credential record owned by the users table.
type User struct {
	ID             string
	Name           string
	Email          string
	HashedPassword string
	IsActive       bool
	IsVerified     bool
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
