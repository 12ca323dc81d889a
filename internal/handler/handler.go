package handler

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"opensails/internal/auth"
	"opensails/internal/errors"
	"opensails/internal/service"
)

// Validator wraps validator for Echo.
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates the request validator installed on echo.
func NewValidator() *Validator {
	return &Validator{validator: validator.New()}
}

// Validate implements echo.Validator interface.
func (v *Validator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}
	return nil
}

// fail turns a domain error into the JSON error response.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// actor reads the authenticated caller from the JWT claims.
func actor(c echo.Context) (service.Actor, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok || claims.UserID == 0 {
		return service.Actor{}, fail(errors.ErrUnauthorized)
	}
	return service.Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

// parseID parses a positive integer identifier.
func parseID(raw, field string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fail(errors.NewValidationError(field, "must be a positive integer"))
	}
	return uint(id), nil
}

// optionalID parses an identifier that may be absent.
func optionalID(raw, field string) (uint, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	id, err := parseID(raw, field)
	return id, err == nil, err
}
