package auth

import "context"

var _ Resolver = (*JWTResolver)(nil)

// Resolver turns an opaque caller credential into a Principal.
// Implementations return an error wrapping ErrUnauthenticated for bad credentials.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Principal, error)
}

// RevocationChecker reports whether a token (by its jti) was revoked by the identity provider.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
