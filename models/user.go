package models

import "fmt"

// Role is the closed set of roles a user can hold
type Role string

const (
	// RoleUploader can import spreadsheets and read the audit log
	RoleUploader Role = "uploader"
	// RoleViewer can only read records
	RoleViewer Role = "viewer"
)

// ParseRole converts a stored role string into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUploader, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User represents an account that can log in to the portal
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password"`
	Role         Role   `json:"role" db:"role"`
}

// LoginForm represents the submitted login form
type LoginForm struct {
	Username string `validate:"required,max=50"`
	Password string `validate:"required"`
}
