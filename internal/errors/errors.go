package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrCollectionNotFound is returned when a collection is not found.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrBidNotFound is returned when a bid is not found.
	ErrBidNotFound = errors.New("bid not found")
	// ErrInvalidPrice is returned when a price is not positive or has sub-cent digits.
	ErrInvalidPrice = errors.New("price must be greater than zero with at most 2 decimal places")
	// ErrInvalidStocks is returned when a collection has no stock.
	ErrInvalidStocks = errors.New("stocks must be at least 1")
	// ErrInvalidStatus is returned when a status value is unknown.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition is returned when a status change violates the lifecycle.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrConflict is returned when a concurrent change won the race for a row.
	ErrConflict = errors.New("resource was modified concurrently")
	// ErrCollectionClosed is returned when a closed collection is mutated or bid on.
	ErrCollectionClosed = errors.New("collection is closed")
	// ErrBidNotPending is returned when a bid is no longer pending.
	ErrBidNotPending = errors.New("bid is no longer pending")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when the request carries no usable session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserAlreadyExists is returned when trying to register an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidStocks) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsConflict reports whether err means the target row was already resolved
// or changed underneath the caller.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrCollectionClosed) ||
		errors.Is(err, ErrBidNotPending)
}

// IsNotFound reports whether err means a referenced row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrBidNotFound)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case IsValidation(err):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrCollectionNotFound):
		return NewHTTPError(http.StatusNotFound, ErrCollectionNotFound.Error(), "COLLECTION_NOT_FOUND")
	case errors.Is(err, ErrBidNotFound):
		return NewHTTPError(http.StatusNotFound, ErrBidNotFound.Error(), "BID_NOT_FOUND")
	case errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusConflict, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, ErrCollectionClosed):
		return NewHTTPError(http.StatusConflict, err.Error(), "COLLECTION_CLOSED")
	case errors.Is(err, ErrBidNotPending):
		return NewHTTPError(http.StatusConflict, err.Error(), "BID_NOT_PENDING")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_REFRESH_TOKEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
