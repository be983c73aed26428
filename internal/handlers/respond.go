package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/util"
)

// httpError maps a domain error to its HTTP status exactly once, at the
// boundary. Whatever happened inside the service, the client only ever sees
// the sentinel's own message.
func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
}

type messageResponse struct {
	Message string `json:"message"`
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	return page, offset, limit
}

func pagedResponse(items any, page, limit int, total int64, offset int) map[string]any {
	return map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	}
}
