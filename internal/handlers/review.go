package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vinald/bookapi/internal/apperr"
	authmw "github.com/vinald/bookapi/internal/middleware/auth"
	"github.com/vinald/bookapi/internal/service"
)

type ReviewHandler struct {
	Reviews *service.ReviewService
}

func (h *ReviewHandler) List(c echo.Context) error {
	page, offset, limit := pageParams(c)
	reviews, total, err := h.Reviews.ListAll(c.Request().Context(), offset, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagedResponse(reviews, page, limit, total, offset))
}

func (h *ReviewHandler) Get(c echo.Context) error {
	review, err := h.Reviews.Get(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) ListByBook(c echo.Context) error {
	reviews, err := h.Reviews.ListByBook(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) ListMine(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}
	reviews, err := h.Reviews.ListMine(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Create(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}

	var req service.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}

	review, err := h.Reviews.Create(c.Request().Context(), c.Param("uuid"), user, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}

	var req service.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}

	review, err := h.Reviews.Update(c.Request().Context(), c.Param("uuid"), user, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}
	if err := h.Reviews.Delete(c.Request().Context(), c.Param("uuid"), user); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
