package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

func IsValidRole(r Role) bool {
	return r == RoleUser || r == RoleStaff || r == RoleAdmin
}

// Actor is the authenticated principal supplied by the auth middleware.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}
