// Package controller holds response helpers shared by the resource controllers.
package controller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"libraryapi/app/echoServer/validation"
	"libraryapi/service/policy"
)

const (
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgForbidden        = "You do not have permission to perform this action."
	MsgNotFound         = "Not found."
	MsgInvalidPage      = "Invalid page."
)

func Detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}

// Invalid answers 400 with per-field messages.
func Invalid(c echo.Context, fields map[string][]string) error {
	return c.JSON(http.StatusBadRequest, fields)
}

// Denied renders a policy refusal.
func Denied(c echo.Context, d policy.Decision) error {
	if d == policy.AuthenticationRequired {
		return Detail(c, http.StatusUnauthorized, MsgNotAuthenticated)
	}
	return Detail(c, http.StatusForbidden, MsgForbidden)
}

func Internal(c echo.Context, log *zap.Logger, op string, err error) error {
	log.Error(op,
		zap.Error(err),
		zap.String("req_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
	return Detail(c, http.StatusInternalServerError, "internal error")
}

// ParseID reads the :id path parameter.
func ParseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Bind decodes the body into req and validates it. Field problems come back as
// a message map; a malformed body comes back as an error.
func Bind(c echo.Context, req any) (map[string][]string, error) {
	if err := c.Bind(req); err != nil {
		return nil, err
	}
	if err := c.Validate(req); err != nil {
		return validation.Fields(err), nil
	}
	return nil, nil
}
