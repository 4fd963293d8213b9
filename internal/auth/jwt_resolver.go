package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/rehabtracker/internal/telemetry/tracing"
	"github.com/2beens/rehabtracker/pkg"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
)

// Claims are the JWT claims issued by the identity provider.
// The principal id is the subject and the role is a custom claim. Tokens issued by
// the legacy identity service carry the whole identity as a JSON string in the
// subject instead, e.g. sub = {"id": "...", "role": "therapist"}; both are accepted.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// JWTResolver validates HS256 tokens signed with a secret shared with the identity provider.
type JWTResolver struct {
	secret      []byte
	parser      *jwt.Parser
	revocations RevocationChecker // optional
}

func NewJWTResolver(secret []byte, revocations RevocationChecker) *JWTResolver {
	return &JWTResolver{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
		revocations: revocations,
	}
}

func (r *JWTResolver) Resolve(ctx context.Context, credential string) (_ Principal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.jwt.resolve")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if credential == "" {
		return Principal{}, fmt.Errorf("%w: empty credential", ErrUnauthenticated)
	}
	if len(r.secret) == 0 {
		// fail closed
		return Principal{}, fmt.Errorf("%w: resolver not configured", ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := r.parser.ParseWithClaims(credential, claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %s", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	principal, err := principalFromClaims(claims)
	if err != nil {
		return Principal{}, err
	}
	span.SetAttributes(attribute.String("principal.id", principal.ID))
	span.SetAttributes(attribute.String("principal.role", string(principal.Role)))

	if r.revocations != nil && claims.ID != "" {
		revoked, err := r.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Principal{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return Principal{}, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
		}
	}

	return principal, nil
}

func principalFromClaims(claims *Claims) (Principal, error) {
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token subject is required", ErrUnauthenticated)
	}

	if claims.Role != "" {
		role := Role(claims.Role)
		if !role.Valid() {
			return Principal{}, fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, claims.Role)
		}
		return Principal{
			ID:   claims.Subject,
			Role: role,
		}, nil
	}

	// legacy identity: subject holds {"id": ..., "role": ...}
	var legacy struct {
		ID   pkg.FlexibleID `json:"id"`
		Role Role           `json:"role"`
	}
	if err := json.Unmarshal([]byte(claims.Subject), &legacy); err != nil {
		return Principal{}, fmt.Errorf("%w: token role is required", ErrUnauthenticated)
	}
	if legacy.ID == "" || legacy.Role == "" {
		return Principal{}, fmt.Errorf("%w: incomplete legacy identity", ErrUnauthenticated)
	}
	if !legacy.Role.Valid() {
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, legacy.Role)
	}
	return Principal{ID: legacy.ID.String(), Role: legacy.Role}, nil
}

// IsUnauthenticated is a small helper for the boundary.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
