package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-reservation/internal/middleware"
	"github.com/iliyamo/movie-reservation/internal/service"
)

// statusFor maps a service error kind to an HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation, service.KindBusinessRule:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindDeclined:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": "..."}.  Internal errors are logged
// and replaced by a generic message.
func writeError(c echo.Context, log zerolog.Logger, err error) error {
	kind := service.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error(), "kind": kind.String()})
}

// getUserID extracts the authenticated user id placed in the context by
// the JWT middleware.
func getUserID(c echo.Context) (uint64, bool) {
	return middleware.UserID(c)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
