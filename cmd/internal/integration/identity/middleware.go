package identity

import (
	"context"
	"errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils/apierror"
	"strings"
)

const principalKey = "principal"

// UserMirror records the principal locally so domain rows can reference it.
type UserMirror interface {
	EnsureUser(ctx context.Context, id int, username string, role entity.Role) apierror.ErrorResponse
}

// Middleware authenticates every request with resolver. Browsers cannot set
// headers on a websocket handshake, so a token query parameter is accepted too.
func Middleware(resolver Resolver, users UserMirror) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
			}

			p, err := resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					log.Errorf("failed to resolve principal: %v", err)
					return c.JSON(apierror.StorageUnavailableError.Code(), apierror.StorageUnavailableError)
				}
				return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
			}

			if users != nil {
				if apierr := users.EnsureUser(c.Request().Context(), p.UserID, p.Username, p.Role); apierr != nil {
					return c.JSON(apierr.Code(), apierr)
				}
			}

			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// RequireRole rejects principals whose role is not role.
func RequireRole(role entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromCtx(c)
			if p == nil {
				return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
			}
			if p.Role != role {
				apierr := apierror.Forbidden("Only a " + string(role) + " may do this")
				return c.JSON(apierr.Code(), apierr)
			}
			return next(c)
		}
	}
}

func PrincipalFromCtx(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}

// WithPrincipal stores p on the context, as Middleware does.
func WithPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return c.QueryParam("token")
}
