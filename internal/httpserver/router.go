package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/book_api/internal/metrics"
	authmw "github.com/Skotchmaster/book_api/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/book_api/internal/middleware/logging"
	"github.com/Skotchmaster/book_api/internal/models"
)

const APIPrefix = "/api/v1.0"

type Deps struct {
	AuthHandler   *AuthHTTP
	UserHandler   *UserHTTP
	AdminHandler  *AdminHTTP
	BookHandler   *BookHTTP
	ReviewHandler *ReviewHTTP
	HealthHandler *HealthHTTP
	Auth          *authmw.Middleware
	Metrics       *metrics.Metrics
}

// NewEcho builds an echo instance with the shared middleware chain, validator
// and error handler.
func NewEcho(logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Use(echomw.RequestID())
	if m != nil {
		e.Use(m.Middleware())
	}
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group(APIPrefix)
	signedIn := d.Auth.Require(models.AnyRole...)
	adminOnly := d.Auth.Require(models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/logout-all", d.AuthHandler.LogoutAll, signedIn)

	users := api.Group("/users")
	users.GET("/me", d.UserHandler.Me, signedIn)
	users.POST("/change-password", d.AuthHandler.ChangePassword, signedIn)
	users.GET("", d.UserHandler.List)
	users.GET("/email/:email", d.UserHandler.GetByEmail)
	users.GET("/:uuid", d.UserHandler.Get)
	users.PUT("/:uuid", d.UserHandler.Update, signedIn)
	users.DELETE("/:uuid", d.UserHandler.Delete, signedIn)

	admin := api.Group("/admin/users", adminOnly)
	admin.POST("", d.AdminHandler.CreateUser)
	admin.PATCH("/:uuid", d.AdminHandler.UpdateUser)
	admin.DELETE("/:uuid", d.AdminHandler.DeleteUser)
	admin.PATCH("/:uuid/role", d.AdminHandler.ChangeRole)
	admin.PATCH("/:uuid/activate", d.AdminHandler.SetActive)

	books := api.Group("/books")
	books.GET("", d.BookHandler.GetBooks)
	books.GET("/search", d.BookHandler.SearchBooks)
	books.GET("/my-books", d.BookHandler.MyBooks, signedIn)
	books.GET("/:uuid", d.BookHandler.GetBook)
	books.POST("", d.BookHandler.CreateBook, signedIn)
	books.PATCH("/:uuid", d.BookHandler.PatchBook, signedIn)
	books.DELETE("/:uuid", d.BookHandler.DeleteBook, signedIn)
	books.GET("/:uuid/reviews", d.ReviewHandler.BookReviews)
	books.GET("/:uuid/rating", d.ReviewHandler.BookRating)
	books.POST("/:uuid/reviews", d.ReviewHandler.CreateReview, signedIn)

	reviews := api.Group("/reviews")
	reviews.GET("", d.ReviewHandler.AllReviews)
	reviews.GET("/my-reviews", d.ReviewHandler.MyReviews, signedIn)
	reviews.GET("/user/:uuid", d.ReviewHandler.UserReviews)
	reviews.GET("/:uuid", d.ReviewHandler.GetReview)
	reviews.PATCH("/:uuid", d.ReviewHandler.PatchReview, signedIn)
	reviews.DELETE("/:uuid", d.ReviewHandler.DeleteReview, signedIn)
}
