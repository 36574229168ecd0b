package echoServer

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"libraryapi/app/echoServer/controller/book"
	"libraryapi/app/echoServer/controller/borrowing"
	"libraryapi/app/echoServer/validation"
)

type C struct {
	Book      *book.Controller
	Borrowing *borrowing.Controller
	JWTSecret string
	Log       *zap.Logger
	// Ping checks the store for /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

// New builds the echo instance with middlewares, codecs and routes.
func New(c C) *echo.Echo {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}
	e.Validator = validation.New()
	e.HTTPErrorHandler = ErrorHandler(c.Log)

	RegisterMiddlewares(e, c.Log)
	Register(e, c)
	return e
}

func Register(e *echo.Echo, c C) {
	e.GET("/health/", func(ctx echo.Context) error {
		if c.Ping != nil {
			if err := c.Ping(ctx.Request().Context()); err != nil {
				c.Log.Warn("health check failed", zap.Error(err))
				return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("", JWTAuth(c.JWTSecret), Identify())

	// Books: read for everyone, write for staff
	api.GET("/books/", c.Book.List)
	api.POST("/books/", c.Book.Create)
	api.GET("/books/:id/", c.Book.Detail)
	api.PATCH("/books/:id/", c.Book.Update)
	api.PUT("/books/:id/", c.Book.Replace)
	api.DELETE("/books/:id/", c.Book.Delete)

	// Borrowings
	br := api.Group("/borrowings", RequireAuth())
	br.GET("/", c.Borrowing.List)
	br.POST("/", c.Borrowing.Create)
	br.GET("/:id/", c.Borrowing.Detail)
	br.POST("/:id/return/", c.Borrowing.Return)
}
