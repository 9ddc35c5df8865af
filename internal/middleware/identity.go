package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
)

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Principal, error)
}

// ErrMalformedHeader is returned for an Authorization header that is not a bearer token.
var ErrMalformedHeader = errors.New("authorization header must be in Bearer format")

// Identity resolves the request principal. Requests without an
// Authorization header proceed anonymously; a header no verifier accepts is
// rejected with AUTH_REQUIRED.
func Identity(verifiers ...TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			token, err := bearerToken(header)
			if err != nil {
				return apperr.Wrap(apperr.CodeAuthRequired, "invalid authorization header", err)
			}

			ctx := c.Request().Context()
			var lastErr error
			for _, v := range verifiers {
				p, err := v.Verify(ctx, token)
				if err == nil && !p.IsAnonymous() {
					c.SetRequest(c.Request().WithContext(identity.WithPrincipal(ctx, p)))
					return next(c)
				}
				lastErr = err
			}
			if lastErr == nil {
				lastErr = errors.New("no token verifier configured")
			}
			return apperr.Wrap(apperr.CodeAuthRequired, "invalid or expired token", lastErr)
		}
	}
}

func bearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}

// PrincipalFrom returns the principal of the request.
func PrincipalFrom(c echo.Context) identity.Principal {
	return identity.FromContext(c.Request().Context())
}
