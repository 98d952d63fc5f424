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

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func (h *ReviewHTTP) BookReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.book_reviews")

	bookID, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "book_reviews", "bad uuid", err)
	}

	page, offset, limit := pageParams(c)
	res, err := h.Svc.ForBook(ctx, bookID, offset, limit)
	if err != nil {
		return failed(l, "book_reviews", "cannot list reviews", err)
	}

	return c.JSON(http.StatusOK, transport.PageResponse[models.Review]{
		Data: res.Items,
		Meta: util.NewMeta(page, offset, limit, res.Total),
	})
}

func (h *ReviewHTTP) AllReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.all_reviews")

	page, offset, limit := pageParams(c)
	res, err := h.Svc.All(ctx, offset, limit)
	if err != nil {
		return failed(l, "all_reviews", "cannot list reviews", err)
	}

	return c.JSON(http.StatusOK, transport.PageResponse[models.Review]{
		Data: res.Items,
		Meta: util.NewMeta(page, offset, limit, res.Total),
	})
}

func (h *ReviewHTTP) UserReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.user_reviews")

	userID, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "user_reviews", "bad uuid", err)
	}

	items, err := h.Svc.ByUser(ctx, userID)
	if err != nil {
		return failed(l, "user_reviews", "cannot list reviews", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ReviewHTTP) BookRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.book_rating")

	bookID, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "book_rating", "bad uuid", err)
	}

	stats, err := h.Svc.Rating(ctx, bookID)
	if err != nil {
		return failed(l, "book_rating", "cannot compute rating", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *ReviewHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create_review")

	bookID, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "create_review", "bad uuid", err)
	}
	var req transport.CreateReviewRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "create_review", "invalid body", err)
	}

	rv, err := h.Svc.Create(ctx, authmw.CurrentUser(c), bookID, service.ReviewInput{
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		return failed(l, "create_review", "cannot create review", err)
	}
	return c.JSON(http.StatusCreated, rv)
}

func (h *ReviewHTTP) GetReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.get_review")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "get_review", "bad uuid", err)
	}

	rv, err := h.Svc.Get(ctx, id)
	if err != nil {
		return failed(l, "get_review", "cannot get review", err)
	}
	return c.JSON(http.StatusOK, rv)
}

func (h *ReviewHTTP) MyReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.my_reviews")

	items, err := h.Svc.Mine(ctx, authmw.CurrentUser(c))
	if err != nil {
		return failed(l, "my_reviews", "cannot list reviews", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ReviewHTTP) PatchReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.patch_review")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "patch_review", "bad uuid", err)
	}
	var req transport.PatchReviewRequest
	if err := bindValid(c, &req); err != nil {
		return failed(l, "patch_review", "invalid body", err)
	}

	rv, err := h.Svc.Update(ctx, authmw.CurrentUser(c), id, service.ReviewPatch{
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		return failed(l, "patch_review", "cannot update review", err)
	}
	return c.JSON(http.StatusOK, rv)
}

func (h *ReviewHTTP) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete_review")

	id, err := uuidParam(c, "uuid")
	if err != nil {
		return failed(l, "delete_review", "bad uuid", err)
	}
	if err := h.Svc.Delete(ctx, authmw.CurrentUser(c), id); err != nil {
		return failed(l, "delete_review", "cannot delete review", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Review deleted successfully"})
}
