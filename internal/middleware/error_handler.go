package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/servly/payment-service/internal/dto"
)

// ErrorHandler renders every error the payment handlers did not map themselves
// in the same {code, message} shape the payment endpoints return, so callers
// parse one error body regardless of which layer failed.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := err.Error()

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		message = fmt.Sprintf("%v", he.Message)
	}

	_ = c.JSON(status, dto.ErrorResponse{Message: message})
}
