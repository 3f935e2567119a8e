package auth

// Decision is the outcome of evaluating a Policy.
type Decision int

const (
	Allowed Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Policy declares what a route requires. Role or Permission imply Authenticated.
type Policy struct {
	Authenticated bool
	Role          string
	Permission    string
}

// RequireAuth requires any valid token.
func RequireAuth() Policy { return Policy{Authenticated: true} }

// RequireRole requires the named role.
func RequireRole(name string) Policy { return Policy{Authenticated: true, Role: name} }

// RequirePermission requires the named permission, direct or inherited.
func RequirePermission(name string) Policy {
	return Policy{Authenticated: true, Permission: name}
}

func (p Policy) needsPrincipal() bool {
	return p.Authenticated || p.Role != "" || p.Permission != ""
}

// Evaluate checks authentication, then role, then permission.
func (p Policy) Evaluate(principal *Principal) Decision {
	if !p.needsPrincipal() {
		return Allowed
	}
	if principal == nil || principal.User == nil {
		return Unauthenticated
	}
	if p.Role != "" && !principal.HasRole(p.Role) {
		return Forbidden
	}
	if p.Permission != "" && !principal.HasPermission(p.Permission) {
		return Forbidden
	}
	return Allowed
}
