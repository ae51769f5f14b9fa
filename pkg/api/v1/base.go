package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	HttpServerBaseRoute string = "/api/v1"
	HttpServerRootRoute string = ""
)

// ErrorResponse returns a JSON error body with the given status
func ErrorResponse(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]string{"error": message})
}

func HTTPBadRequest(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message)
}

func HTTPUnauthorized(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusUnauthorized, message)
}

func HTTPNotFound(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusNotFound, message)
}

func HTTPTooManyRequests(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusTooManyRequests, message)
}

func HTTPServiceUnavailable(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusServiceUnavailable, message)
}

func HTTPInternalServerError(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusInternalServerError, message)
}
