package actors

import "github.com/google/uuid"

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

func IsValidRole(role string) bool {
	switch role {
	case string(RoleClient), string(RoleAdmin):
		return true
	default:
		return false
	}
}

// Actor identifies the authenticated party invoking an operation. It is
// resolved exactly once, at the authorization boundary, from the JWT claims;
// business logic receives it explicitly instead of re-querying storage to
// guess the caller's type.
type Actor struct {
	ID           uuid.UUID
	Role         Role
	IsSuperadmin bool
}

func (a Actor) IsClient() bool {
	return a.Role == RoleClient
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// NewClientActor builds the actor for a client account.
func NewClientActor(id uuid.UUID) Actor {
	return Actor{ID: id, Role: RoleClient}
}

// NewAdminActor builds the actor for an admin account.
func NewAdminActor(id uuid.UUID, superadmin bool) Actor {
	return Actor{ID: id, Role: RoleAdmin, IsSuperadmin: superadmin}
}
