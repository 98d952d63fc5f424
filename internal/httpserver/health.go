package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/book_api/pkg/db"

	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/revocation"
)

const readyTimeout = 2 * time.Second

type HealthHTTP struct {
	DB      *gorm.DB
	Revoked revocation.Store
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Ready reports 503 until both the database and Redis answer.
func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()
	l := logging.FromContext(ctx).With("handler", "health.ready")

	checks := echo.Map{"database": "ok", "redis": "ok"}
	ready := true

	if err := pkgdb.Ping(ctx, h.DB); err != nil {
		l.Warn("ready_check_failed", "component", "database", "error", err)
		checks["database"] = "unavailable"
		ready = false
	}
	if err := h.Revoked.Ping(ctx); err != nil {
		l.Warn("ready_check_failed", "component", "redis", "error", err)
		checks["redis"] = "unavailable"
		ready = false
	}

	if !ready {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "checks": checks})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "checks": checks})
}
