package domain

// Actor is the identity performing an operation, resolved from the
// gateway-signed token. Roles and capabilities are a snapshot taken by
// the gateway at request time.
type Actor struct {
	ID             string
	Username       string
	Roles          []string
	Administrator  bool
	ManageChannels bool
}

// HasAnyRole reports whether the actor holds at least one of the roles.
func (a Actor) HasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return false
	}
	held := make(map[string]struct{}, len(a.Roles))
	for _, r := range a.Roles {
		held[r] = struct{}{}
	}
	for _, r := range roles {
		if _, ok := held[r]; ok {
			return true
		}
	}
	return false
}
