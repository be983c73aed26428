package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vinald/bookapi/internal/apperr"
	authmw "github.com/vinald/bookapi/internal/middleware/auth"
	"github.com/vinald/bookapi/internal/service"
)

type UserHandler struct {
	Users   *service.UserService
	Reviews *service.ReviewService
}

func (h *UserHandler) Me(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}
	full, err := h.Users.GetByUUID(c.Request().Context(), user.UUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, full)
}

func (h *UserHandler) List(c echo.Context) error {
	page, offset, limit := pageParams(c)
	users, total, err := h.Users.List(c.Request().Context(), offset, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagedResponse(users, page, limit, total, offset))
}

func (h *UserHandler) GetByUUID(c echo.Context) error {
	user, err := h.Users.GetByUUID(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByEmail(c echo.Context) error {
	user, err := h.Users.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}

	var req service.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}

	updated, err := h.Users.UpdateProfile(c.Request().Context(), user, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *UserHandler) DeleteMe(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}
	if err := h.Users.Delete(c.Request().Context(), user.UUID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted successfully"})
}

func (h *UserHandler) ListUserReviews(c echo.Context) error {
	reviews, err := h.Reviews.ListByUser(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}
