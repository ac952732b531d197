package rbac

// Role names. Keep these stable; they are part of auth contracts.
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsAgent(role string) bool { return role == RoleAgent }

func IsValidRole(role string) bool { return role == RoleAdmin || role == RoleAgent }
