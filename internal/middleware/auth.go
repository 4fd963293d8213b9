package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/2beens/rehabtracker/internal/auth"
	"github.com/2beens/rehabtracker/internal/telemetry/tracing"
	"github.com/2beens/rehabtracker/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=middleware_mocks_test.go -package=middleware_test

type principalResolver interface {
	Resolve(ctx context.Context, credential string) (auth.Principal, error)
}

// AuthMiddlewareHandler turns the bearer credential into a principal and puts it in the request context.
// The program and report handlers never see an unauthenticated request.
type AuthMiddlewareHandler struct {
	resolver     principalResolver
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(resolver principalResolver) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		resolver: resolver,
		allowedPaths: map[string]bool{
			"/health": true,
		},
	}
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			credential := bearerToken(r.Header.Get("Authorization"))
			if credential == "" {
				log.Tracef("[missing token] [auth middleware] unauthenticated => %s", r.URL.Path)
				pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			principal, err := h.resolver.Resolve(ctx, credential)
			if err != nil {
				if auth.IsUnauthenticated(err) {
					log.Tracef("[invalid token] [auth middleware] unauthenticated => %s: %s", r.URL.Path, err)
				} else {
					log.Errorf("[failed principal resolve] => %s: %s", r.URL.Path, err)
					span.RecordError(err)
				}
				pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "resolve-principal-err")
				return
			}

			noteCaller(r.Context(), principal.ID)
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
