package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/metrics"
	authmw "github.com/Skotchmaster/book_api/internal/middleware/auth"
	"github.com/Skotchmaster/book_api/internal/service"
	"github.com/Skotchmaster/book_api/internal/transport"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Metrics *metrics.Metrics
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "register", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	h.Metrics.AuthEvent("register", outcome(err))
	if err != nil {
		return failed(l, "register", "cannot register user", err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "login", "invalid body", err)
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	h.Metrics.AuthEvent("login", outcome(err))
	if err != nil {
		return failed(l, "login", "invalid credentials", err)
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "refresh", "invalid body", err)
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken)
	h.Metrics.AuthEvent("refresh", outcome(err))
	if err != nil {
		return failed(l, "refresh", "cannot refresh tokens", err)
	}

	return c.JSON(http.StatusOK, pair)
}

// Logout only needs a decodable bearer token; a revoked or expired one still
// logs out.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	raw, ok := authmw.BearerToken(c)
	if !ok {
		return failed(l, "logout", "missing bearer token", service.ErrUnauthorized)
	}

	var req transport.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return failed(l, "logout", "invalid body", echo.NewHTTPError(http.StatusBadRequest, "invalid body"))
	}

	err := h.Svc.Logout(ctx, raw, req.RefreshToken)
	h.Metrics.AuthEvent("logout", outcome(err))
	if err != nil {
		return failed(l, "logout", "cannot revoke token", err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Successfully logged out"})
}

func (h *AuthHTTP) LogoutAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout_all")

	err := h.Svc.LogoutAll(ctx, authmw.CurrentUser(c))
	h.Metrics.AuthEvent("logout_all", outcome(err))
	if err != nil {
		return failed(l, "logout_all", "cannot revoke tokens", err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Successfully logged out from all devices"})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	var req transport.ChangePasswordRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "change_password", "invalid body", err)
	}

	err := h.Svc.ChangePassword(ctx, authmw.CurrentUser(c), req.OldPassword, req.NewPassword)
	h.Metrics.AuthEvent("change_password", outcome(err))
	if err != nil {
		return failed(l, "change_password", "cannot change password", err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password changed successfully"})
}
