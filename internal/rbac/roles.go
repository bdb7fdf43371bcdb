package rbac

// Role names. Keep these stable; they are carried in access tokens.
const (
	RoleVisitor = "visitor"
	RoleAdmin   = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsKnownRole(role string) bool { return role == RoleVisitor || role == RoleAdmin }
