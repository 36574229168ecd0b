// app/echoServer/middleware.go
package echoServer

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"libraryapi/app/echoServer/controller"
	"libraryapi/app/echoServer/jwtx"
	"libraryapi/model"
	jwtutil "libraryapi/util/jwt"
)

func RegisterMiddlewares(e *echo.Echo, log *zap.Logger) {
	e.Pre(middleware.AddTrailingSlash())

	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(ZapLogger(log))
}

func ZapLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.Info("http",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
				zap.String("req_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("ip", c.RealIP()),
			)
			return nil
		}
	}
}

// JWTAuth verifies a bearer token when one is sent. Requests without an
// Authorization header pass through as anonymous.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get(echo.HeaderAuthorization) == ""
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Given token not valid for any token type").SetInternal(err)
		},
	})
}

// Identify stores the caller's Principal on the context.
func Identify() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok, ok := c.Get("user").(*jwt.Token)
			if !ok || tok == nil {
				jwtx.SetPrincipal(c, model.Anonymous())
				return next(c)
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Given token not valid for any token type").SetInternal(errors.New("invalid jwt claims"))
			}
			p, err := jwtutil.PrincipalFromClaims(claims)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Given token not valid for any token type").SetInternal(err)
			}
			jwtx.SetPrincipal(c, p)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !jwtx.PrincipalFromContext(c).Authenticated() {
				return controller.Detail(c, http.StatusUnauthorized, controller.MsgNotAuthenticated)
			}
			return next(c)
		}
	}
}

// ErrorHandler renders every error as {"detail": "..."}.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
			if code == http.StatusNotFound && msg == "Not Found" {
				msg = controller.MsgNotFound
			}
		} else {
			log.Error("unhandled error",
				zap.Error(err),
				zap.String("req_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"detail": msg})
		}
		if err != nil {
			log.Error("write error response", zap.Error(err))
		}
	}
}
