package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/service"
)

const (
	userKey  = "auth.user"
	tokenKey = "auth.token"
)

type Authorizer interface {
	Authorize(ctx context.Context, raw string, roles ...models.Role) (*models.User, error)
}

type Middleware struct {
	Guard Authorizer
}

func New(guard Authorizer) *Middleware {
	return &Middleware{Guard: guard}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Require admits requests whose bearer token resolves to an active user holding
// one of roles. With no roles any authenticated user passes.
func (m *Middleware) Require(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return service.ErrUnauthorized
			}

			ctx := c.Request().Context()
			user, err := m.Guard.Authorize(ctx, raw, roles...)
			if err != nil {
				return err
			}

			c.Set(userKey, user)
			c.Set(tokenKey, raw)
			l := logging.FromContext(ctx).With("user", user.UUID.String())
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}

// CurrentToken is the raw bearer token admitted by Require.
func CurrentToken(c echo.Context) string {
	t, _ := c.Get(tokenKey).(string)
	return t
}
