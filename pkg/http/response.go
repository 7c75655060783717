package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the envelope. Its status is also the HTTP status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, Envelope(statusCode, data))
}

// Envelope builds the response body for statusCode without writing it, for
// callers that cache encoded responses.
func Envelope(statusCode int, data interface{}) APIResponse {
	return APIResponse{Status: statusCode, Message: http.StatusText(statusCode), Data: data}
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// RawJSONResponse writes an already encoded envelope.
func RawJSONResponse(c echo.Context, statusCode int, body []byte) error {
	return c.JSONBlob(statusCode, body)
}

func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes err with its own status. Anything that is not an
// AppError becomes a bare 500 so internals never reach the client.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}
