package session

// State is where a client stands in the sign-in lifecycle.
type State int

const (
	// Anonymous clients carry no valid session token.
	Anonymous State = iota
	// Authenticating clients passed a sign-in decision and have no token yet.
	Authenticating
	// Authenticated clients carry a valid token.
	Authenticated
	// SignedOut clients present a token that was revoked.
	SignedOut
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}
