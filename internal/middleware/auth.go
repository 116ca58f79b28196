package middleware

import (
	"context"
	"errors"
	"net/http"

	"idrecon/internal/domain"
)

type tokenErrKey struct{}

// TokenSource returns the bearer token of a request, or "".
type TokenSource func(*http.Request) string

// Authenticate attaches the operator named by the request's bearer token to
// the context. It never rejects a request: pages decide whether a missing
// operator means a redirect to the login form. A token that failed
// inspection is recorded for TokenErrorFromContext.
func Authenticate(inspector *TokenInspector, source TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := source(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := inspector.Inspect(token)
			if err != nil {
				Logger(ctx, nil).Debug("bearer token rejected", "error", err)
				ctx = context.WithValue(ctx, tokenErrKey{}, err)
			} else {
				ctx = domain.WithPrincipal(ctx, claims.Principal())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenErrorFromContext returns why the request's token was not accepted.
func TokenErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(tokenErrKey{}).(error)
	return err
}

// TokenRejected reports whether the request carried a token that is expired
// or fails signature verification. Undecodable tokens are left to the
// backend to judge.
func TokenRejected(ctx context.Context) bool {
	err := TokenErrorFromContext(ctx)
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenInvalid)
}
