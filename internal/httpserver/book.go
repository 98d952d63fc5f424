package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/book_api/internal/logging"
	authmw "github.com/Skotchmaster/book_api/internal/middleware/auth"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/service"
	"github.com/Skotchmaster/book_api/internal/transport"
	"github.com/Skotchmaster/book_api/internal/util"
)

type BookHTTP struct {
	Svc *service.BookService
}

func (h *BookHTTP) GetBooks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.get_books")

	page, offset, limit := pageParams(c)
	res, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return failed(l, "get_books", "cannot list books", err)
	}

	return c.JSON(http.StatusOK, transport.PageResponse[models.Book]{
		Data: res.Items,
		Meta: util.NewMeta(page, offset, limit, res.Total),
	})
}

func (h *BookHTTP) SearchBooks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.search_books")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return failed(l, "search_books", "empty query", echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required"))
	}

	page, offset, limit := pageParams(c)
	res, err := h.Svc.Search(ctx, q, offset, limit)
	if err != nil {
		return failed(l, "search_books", "cannot search books", err)
	}

	return c.JSON(http.StatusOK, transport.PageResponse[models.Book]{
		Data: res.Items,
		Meta: util.NewMeta(page, offset, limit, res.Total),
	})
}

func (h *BookHTTP) MyBooks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.my_books")

	items, err := h.Svc.MyBooks(ctx, authmw.CurrentUser(c))
	if err != nil {
		return failed(l, "my_books", "cannot list books", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BookHTTP) GetBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.get_book")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "get_book", "bad uuid", err)
	}

	book, err := h.Svc.Get(ctx, id)
	if err != nil {
		return failed(l, "get_book", "cannot get book", err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHTTP) CreateBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.create_book")

	var req transport.CreateBookRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "create_book", "invalid body", err)
	}

	book, err := h.Svc.Create(ctx, authmw.CurrentUser(c), service.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		PublishDate: req.PublishDate,
		Pages:       req.Pages,
		Language:    req.Language,
	})
	if err != nil {
		return failed(l, "create_book", "cannot create book", err)
	}

	l.Info("create_book_success", "book", book.UUID)
	return c.JSON(http.StatusCreated, book)
}

func (h *BookHTTP) PatchBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.patch_book")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "patch_book", "bad uuid", err)
	}
	var req transport.PatchBookRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "patch_book", "invalid body", err)
	}

	book, err := h.Svc.Update(ctx, authmw.CurrentUser(c), id, service.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		PublishDate: req.PublishDate,
		Pages:       req.Pages,
		Language:    req.Language,
	})
	if err != nil {
		return failed(l, "patch_book", "cannot update book", err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHTTP) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.delete_book")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "delete_book", "bad uuid", err)
	}
	if err := h.Svc.Delete(ctx, authmw.CurrentUser(c), id); err != nil {
		return failed(l, "delete_book", "cannot delete book", err)
	}

	l.Info("delete_book_success", "book", id)
	return c.NoContent(http.StatusNoContent)
}
