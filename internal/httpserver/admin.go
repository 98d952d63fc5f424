package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/service"
	"github.com/Skotchmaster/book_api/internal/transport"
)

// AdminHTTP serves /admin/users. The router puts it behind the admin role.
type AdminHTTP struct {
	Users *service.UserService
}

func (h *AdminHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_user")

	var req transport.AdminCreateUserRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "admin_create_user", "invalid body", err)
	}

	user, err := h.Users.AdminCreate(ctx, service.AdminCreateUserInput{
		RegisterInput: service.RegisterInput{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
		Role:     models.Role(req.Role),
		IsActive: req.IsActive,
	})
	if err != nil {
		return failed(l, "admin_create_user", "cannot create user", err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AdminHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_user")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "admin_update_user", "bad uuid", err)
	}
	var req transport.AdminUpdateUserRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "admin_update_user", "invalid body", err)
	}

	in := service.AdminUpdateUserInput{
		UpdateUserInput: profileInput(req.UpdateUserRequest),
		IsActive:        req.IsActive,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.Users.AdminUpdate(ctx, id, in)
	if err != nil {
		return failed(l, "admin_update_user", "cannot update user", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "admin_delete_user", "bad uuid", err)
	}
	if err := h.Users.AdminDelete(ctx, id); err != nil {
		return failed(l, "admin_delete_user", "cannot delete user", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User deleted successfully"})
}

func (h *AdminHTTP) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.change_role")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "change_role", "bad uuid", err)
	}
	var req transport.ChangeRoleRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "change_role", "invalid body", err)
	}

	user, err := h.Users.ChangeRole(ctx, id, models.Role(req.Role))
	if err != nil {
		return failed(l, "change_role", "cannot change role", err)
	}
	l.Info("role_changed", "target", user.UUID, "role", user.Role)
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHTTP) SetActive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_active")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "set_active", "bad uuid", err)
	}
	var req transport.SetActiveRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "set_active", "invalid body", err)
	}

	user, err := h.Users.SetActive(ctx, id, *req.IsActive)
	if err != nil {
		return failed(l, "set_active", "cannot update user", err)
	}
	return c.JSON(http.StatusOK, user)
}
