package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/service"
	"github.com/Skotchmaster/book_api/internal/transport"
)

// credentialsMessage is shared by every 401 so callers cannot tell failures apart.
const credentialsMessage = "could not validate credentials"

type problem struct {
	status  int
	kind    string
	message string
}

func classify(err error) problem {
	switch {
	case errors.Is(err, service.ErrValidation):
		return problem{http.StatusUnprocessableEntity, "validation_error", validationMessage(err)}
	case errors.Is(err, service.ErrUnauthorized):
		return problem{http.StatusUnauthorized, "unauthorized", credentialsMessage}
	case errors.Is(err, service.ErrForbidden):
		return problem{http.StatusForbidden, "forbidden", "insufficient permissions"}
	case errors.Is(err, service.ErrConflict):
		return problem{http.StatusConflict, "conflict", "resource already exists"}
	case errors.Is(err, service.ErrNotFound):
		return problem{http.StatusNotFound, "not_found", "resource not found"}
	case errors.Is(err, service.ErrUnavailable):
		return problem{http.StatusServiceUnavailable, "service_unavailable", "service temporarily unavailable"}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		kind := strings.ReplaceAll(strings.ToLower(http.StatusText(he.Code)), " ", "_")
		if kind == "" {
			kind = "error"
		}
		if he.Code == http.StatusUnauthorized {
			msg = credentialsMessage
		}
		return problem{he.Code, kind, msg}
	}

	return problem{http.StatusInternalServerError, "internal_error", "internal server error"}
}

// ErrorHandler renders every error as {"error": kind, "message": text}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	p := classify(err)
	if p.status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(p.status)
	} else {
		werr = c.JSON(p.status, transport.ErrorResponse{Error: p.kind, Message: p.message})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", werr)
	}
}

// failed logs a handler failure at a level matching its status and hands the
// error on to ErrorHandler.
func failed(l *slog.Logger, op, reason string, err error) error {
	status := classify(err).status
	if status >= http.StatusInternalServerError {
		l.Error(op+"_failed", "status", status, "reason", reason, "error", err)
	} else {
		l.Warn(op+"_failed", "status", status, "reason", reason, "error", err)
	}
	return err
}

func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(req)
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is not a valid uuid", name))
	}
	return id, nil
}
