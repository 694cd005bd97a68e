// Package auth verifies caller identity from the bearer credential and
// derives the per-request Identity used by every downstream access decision.
package auth

import (
	"context"
	"net/http"
	"strings"

	"quadras/internal/directory"
	apperrors "quadras/pkg/errors"
	httputil "quadras/pkg/http"
	"quadras/pkg/logger"

	"google.golang.org/api/idtoken"
)

const bearerPrefix = "Bearer "

// Identity is derived once per request and is authoritative thereafter; no
// component re-checks admin status downstream.
type Identity struct {
	Email   string
	IsAdmin bool
}

// TokenVerifier validates a raw bearer token and returns the verified
// subject email. Production uses Google ID-token validation; tests stub it.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type googleVerifier struct {
	validator *idtoken.Validator
	audience  string
}

// NewGoogleVerifier verifies Google-issued ID tokens against the configured
// OAuth client ID.
func NewGoogleVerifier(ctx context.Context, audience string) (TokenVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, err
	}
	return &googleVerifier{validator: v, audience: audience}, nil
}

func (g *googleVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	payload, err := g.validator.Validate(ctx, rawToken, g.audience)
	if err != nil {
		return "", err
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", apperrors.Unauthenticated("ID token carries no email claim")
	}
	return email, nil
}

type Authenticator struct {
	verifier TokenVerifier
	dir      *directory.Directory
	log      *logger.Logger
}

func NewAuthenticator(verifier TokenVerifier, dir *directory.Directory, log *logger.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, dir: dir, log: log}
}

// Authenticate parses the Authorization header value, verifies the token and
// computes the admin flag. Missing or malformed credentials fail before any
// upstream call.
func (a *Authenticator) Authenticate(ctx context.Context, authorization string) (Identity, error) {
	if authorization == "" || !strings.HasPrefix(authorization, bearerPrefix) {
		return Identity{}, apperrors.Unauthenticated("invalid authorization scheme")
	}
	token := strings.TrimPrefix(authorization, bearerPrefix)

	email, err := a.verifier.Verify(ctx, token)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
			return Identity{}, err
		}
		return Identity{}, apperrors.Wrap(err, apperrors.CodeUnauthenticated, "invalid ID token", http.StatusUnauthorized)
	}

	identity := Identity{
		Email:   email,
		IsAdmin: a.dir.IsAdmin(email),
	}
	a.log.Info("Request authenticated", "user", identity.Email, "admin", identity.IsAdmin)
	return identity, nil
}

type contextKey struct{}

// IdentityFrom returns the Identity injected by Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Middleware authenticates every request and stores the Identity in the
// request context. Requests without a valid credential never reach the
// gateway handlers.
func Middleware(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				_ = httputil.WriteError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
