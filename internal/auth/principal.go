package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated means the credential could not be turned into a principal.
var ErrUnauthenticated = errors.New("unauthenticated")

type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleTherapist
}

// Principal is the authenticated caller. It is never persisted by this service,
// it is resolved from the request credential on every call.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p Principal) IsTherapist() bool { return p.Role == RoleTherapist }
func (p Principal) IsPatient() bool   { return p.Role == RolePatient }

type principalCtxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}
