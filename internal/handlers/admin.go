package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/service"
)

// AdminHandler holds the admin-only user management endpoints. The admin
// role gate lives in the router; these handlers assume it already ran.
type AdminHandler struct {
	Users *service.UserService
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req service.AdminUserRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}
	user, err := h.Users.AdminCreate(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req service.AdminUserRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}
	user, err := h.Users.AdminUpdate(c.Request().Context(), c.Param("uuid"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.Users.Delete(c.Request().Context(), c.Param("uuid")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted successfully"})
}
