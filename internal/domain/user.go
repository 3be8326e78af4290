package domain

type ContextKey string

const UserContextKey ContextKey = "user"

// User is the authenticated caller built from token claims.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

const RoleAdmin = "admin"

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
