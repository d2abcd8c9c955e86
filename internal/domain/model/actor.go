package model

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupport  Role = "support"
)

// Actor is the authenticated caller of a usecase.
type Actor struct {
	UserID    string
	SessionID string
	Role      Role
}

func (a Actor) IsSupport() bool { return a.Role == RoleSupport }

// GuestUserID is the stable user id assigned to an anonymous session.
func GuestUserID(sessionID string) string { return "guest-" + sessionID }
