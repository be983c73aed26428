package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/blacklist"
	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/tokens"
)

// Middleware authenticates bearer tokens. Between the signature check and
// the handler it consults the revocation cache twice: once for the token's
// own jti, once for the user's logout-all watermark.
type Middleware struct {
	DB        *gorm.DB
	Codec     *tokens.Codec
	Blacklist *blacklist.Cache
}

func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c.Request())
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := m.Codec.Decode(raw, tokens.TypeAccess)
		if err != nil {
			return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
		}

		ctx := c.Request().Context()
		if m.Blacklist.IsTokenBlacklisted(ctx, claims.ID) {
			return echo.NewHTTPError(http.StatusUnauthorized, apperr.ErrRevokedToken.Error())
		}
		if claims.IssuedAt != nil && m.Blacklist.IsUserBlacklistedBefore(ctx, claims.Subject, claims.IssuedAt.Time) {
			return echo.NewHTTPError(http.StatusUnauthorized, apperr.ErrRevokedToken.Error())
		}

		var user models.User
		err = m.DB.WithContext(ctx).Where("uuid = ?", claims.Subject).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, apperr.ErrInvalidToken.Error())
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		if !user.IsActive {
			return echo.NewHTTPError(http.StatusBadRequest, apperr.ErrInactiveUser.Error())
		}

		setUserContext(c, &user, claims)
		return next(c)
	}
}

// RequireRole gates a route on a minimum role. Must run after RequireLogin.
func (m *Middleware) RequireRole(required string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if !models.RoleAtLeast(user.Role, required) {
				msg := apperr.ErrAdminRequired
				if required == models.RoleModerator {
					msg = apperr.ErrModeratorRequired
				}
				return echo.NewHTTPError(http.StatusForbidden, msg.Error())
			}
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
