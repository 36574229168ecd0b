package jwtx

import (
	"github.com/labstack/echo/v4"

	"libraryapi/model"
)

const principalKey = "principal"

func SetPrincipal(c echo.Context, p model.Principal) { c.Set(principalKey, p) }

// PrincipalFromContext returns the caller, or an anonymous principal when none was resolved.
func PrincipalFromContext(c echo.Context) model.Principal {
	if p, ok := c.Get(principalKey).(model.Principal); ok {
		return p
	}
	return model.Anonymous()
}
