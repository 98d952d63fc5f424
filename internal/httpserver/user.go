package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/book_api/internal/logging"
	authmw "github.com/Skotchmaster/book_api/internal/middleware/auth"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/service"
	"github.com/Skotchmaster/book_api/internal/transport"
	"github.com/Skotchmaster/book_api/internal/util"
)

type UserHTTP struct {
	Svc *service.UserService
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ClampPage(util.ParseIntDefault(c.QueryParam("page"), 1))
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	return page, offset, limit
}

func profileInput(req transport.UpdateUserRequest) service.UpdateUserInput {
	return service.UpdateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	user, err := h.Svc.Me(ctx, authmw.CurrentUser(c))
	if err != nil {
		return failed(l, "get_me", "cannot load profile", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	page, offset, limit := pageParams(c)
	res, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return failed(l, "list_users", "cannot list users", err)
	}

	return c.JSON(http.StatusOK, transport.PageResponse[models.User]{
		Data: res.Items,
		Meta: util.NewMeta(page, offset, limit, res.Total),
	})
}

func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "get_user", "bad uuid", err)
	}

	user, err := h.Svc.Get(ctx, id)
	if err != nil {
		return failed(l, "get_user", "cannot get user", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) GetByEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_by_email")

	user, err := h.Svc.GetByEmail(ctx, c.Param("email"))
	if err != nil {
		return failed(l, "get_user_by_email", "cannot get user", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "update_user", "bad uuid", err)
	}
	var req transport.UpdateUserRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "update_user", "invalid body", err)
	}

	user, err := h.Svc.Update(ctx, authmw.CurrentUser(c), id, profileInput(req))
	if err != nil {
		return failed(l, "update_user", "cannot update user", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "delete_user", "bad uuid", err)
	}

	if err := h.Svc.Delete(ctx, authmw.CurrentUser(c), id); err != nil {
		return failed(l, "delete_user", "cannot delete user", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User deleted successfully"})
}
