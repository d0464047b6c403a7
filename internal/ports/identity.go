package ports

import "context"

// Identity is the answer of the identity collaborator's "who am I" call.
type Identity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type IdentityProvider interface {
	WhoAmI(ctx context.Context, bearerToken string) (Identity, error)
}
