package domain

type AuthState string

const (
	StateAnonymous     AuthState = "anonymous"
	StateAuthenticated AuthState = "authenticated"
)

// Persisted keys in the local key/value store.
const (
	CartKey  = "cart"
	TokenKey = "token"
)

type SessionInfo struct {
	State         AuthState    `json:"state"`
	Authenticated bool         `json:"authenticated"`
	Profile       *UserProfile `json:"profile,omitempty"`
}
