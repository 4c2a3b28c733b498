package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
)

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

func badRequest(c echo.Context, message string) error {
	return errorJSON(c, http.StatusBadRequest, "invalid_request", message)
}

// fail maps a service error onto a status code and error code.
func fail(c echo.Context, err error) error {
	var ve models.ValidationError
	switch {
	case errors.As(err, &ve):
		return errorJSON(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, portfolio.ErrInsufficientBalance):
		return errorJSON(c, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, portfolio.ErrNoTransferPartner), errors.Is(err, portfolio.ErrUnknownProgram):
		return errorJSON(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, deals.ErrPersistence):
		return errorJSON(c, http.StatusInternalServerError, "persistence_error", err.Error())
	default:
		return errorJSON(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
