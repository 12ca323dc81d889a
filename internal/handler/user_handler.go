package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"opensails/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc  service.UserService
	bids service.BidService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, bids service.BidService) *UserHandler {
	return &UserHandler{svc: svc, bids: bids}
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} model.User
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, users)
}

// ListUserBids godoc
// @Summary List the bids placed by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} model.Bid
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/bids [get]
func (h *UserHandler) ListUserBids(c echo.Context) error {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	bids, err := h.bids.ListByUser(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, bids)
}
