package models

// Role represents user role in the app. Admin/user separation is a convention, not a security boundary.
type Role string

const (
	RoleGuest Role = "GUEST" // declared, unused by the core flow
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Provider is the identity source a profile came from.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderGuest    Provider = "guest"
)

// ParseRole maps a request role string to a Role. Unknown values fall back to RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, "admin":
		return RoleAdmin
	case RoleGuest, "guest":
		return RoleGuest
	default:
		return RoleUser
	}
}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, bool) {
	switch p := Provider(s); p {
	case ProviderGoogle, ProviderFacebook, ProviderGuest:
		return p, true
	}
	return "", false
}

// UserProfile is created at login and discarded at logout; never written to the store.
type UserProfile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	Provider Provider `json:"provider"`
}
