package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/service"
)

type BookHandler struct {
	Books *service.BookService
}

func (h *BookHandler) List(c echo.Context) error {
	page, offset, limit := pageParams(c)
	books, total, err := h.Books.List(c.Request().Context(), offset, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagedResponse(books, page, limit, total, offset))
}

func (h *BookHandler) Get(c echo.Context) error {
	book, err := h.Books.Get(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Create(c echo.Context) error {
	var req service.BookRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}
	book, err := h.Books.Create(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) Update(c echo.Context) error {
	var req service.BookRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}
	book, err := h.Books.Update(c.Request().Context(), c.Param("uuid"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Delete(c echo.Context) error {
	if err := h.Books.Delete(c.Request().Context(), c.Param("uuid")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
