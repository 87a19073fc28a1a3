package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"

	"credit-advisor/backend/internal/config"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Auth verifies OpenID Connect bearer tokens on API requests. This service
// has no browser session flow; clients present an access token from the IdP.
type Auth struct {
	verifier *oidc.IDTokenVerifier
	logger   Logger
	bypass   bool
}

// New creates a new Auth object using values from the application
// configuration. It establishes a connection to the provider and prepares a
// token verifier. With auth.bypass set, every request passes as a local
// development caller.
func New(ctx context.Context, cfg *config.Config, logger Logger) (*Auth, error) {
	if cfg.Auth.Bypass {
		return &Auth{logger: logger, bypass: true}, nil
	}

	if cfg.Auth.Issuer == "" || cfg.Auth.ClientID == "" {
		return nil, errors.New("auth configuration is incomplete")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Auth.Issuer)
	if err != nil {
		return nil, err
	}

	// Access tokens often carry a different audience than the client id
	// (e.g. "api://default"), so the client id check is skipped.
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})

	return &Auth{verifier: verifier, logger: logger}, nil
}

type contextKey string

// SubjectKey is the context key carrying the authenticated subject.
const SubjectKey contextKey = "auth_subject"

// RequireAuth is middleware that ensures a valid bearer token is present and
// injects the token subject into the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.bypass {
			ctx := context.WithValue(r.Context(), SubjectKey, "dev@localhost")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := a.verifier.Verify(r.Context(), rawToken)
		if err != nil {
			http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
			return
		}

		var claims struct {
			Subject string `json:"sub"`
		}
		if err := token.Claims(&claims); err != nil {
			http.Error(w, "failed to parse token claims", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
