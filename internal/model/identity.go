package model

// ProviderCredentials is the name of the email/password sign-in method.
const ProviderCredentials = "credentials"

// ProviderGoogle is the name of the Google sign-in method.
const ProviderGoogle = "google"

// Identity is the authenticated user as seen by the session layer.
// It never carries the password hash.
type Identity struct {
	ID     string
	Email  string
	Name   string
	Avatar *string
}

// IdentityFromUser builds an Identity from a stored record.
func IdentityFromUser(u User) Identity {
	return Identity{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Avatar: u.Avatar,
	}
}

// Assertion is what an external provider asserts after a successful consent.
type Assertion struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
	AvatarURL   *string
	AccessToken string
}

// Identity maps the assertion to a session identity. Subject is the
// provider-scoped id, used only when no application record exists.
func (a Assertion) Identity() Identity {
	return Identity{
		ID:     a.Subject,
		Email:  NormalizeEmail(a.Email),
		Name:   a.DisplayName,
		Avatar: a.AvatarURL,
	}
}

// Decision is the outcome of an external sign-in.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Account describes the provider account used for a fresh login.
type Account struct {
	Provider    string
	AccessToken string
}

// Login is the input of a fresh token issuance.
type Login struct {
	Identity Identity
	Account  Account
}
