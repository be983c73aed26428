package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/tokens"
)

const (
	userContextKey   = "user"
	claimsContextKey = "claims"
)

func setUserContext(c echo.Context, user *models.User, claims *tokens.Claims) {
	c.Set(userContextKey, user)
	c.Set(claimsContextKey, claims)
}

func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

func CurrentClaims(c echo.Context) *tokens.Claims {
	if cl, ok := c.Get(claimsContextKey).(*tokens.Claims); ok {
		return cl
	}
	return nil
}
