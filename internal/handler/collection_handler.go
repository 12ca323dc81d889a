package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"opensails/internal/model"
	"opensails/internal/service"
)

// CollectionHandler handles collection endpoints.
type CollectionHandler struct {
	svc service.CollectionService
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(svc service.CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// CreateCollectionRequest represents a new listing.
type CreateCollectionRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Descriptions *string         `json:"descriptions"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"1500.00"`
	Stocks       int             `json:"stocks" example:"1"`
}

// UpdateCollectionRequest represents a partial listing update. Setting
// status to closed closes the collection and rejects its pending bids.
type UpdateCollectionRequest struct {
	Name         *string                 `json:"name" validate:"omitempty,max=255"`
	Descriptions *string                 `json:"descriptions"`
	Price        *decimal.Decimal        `json:"price" swaggertype:"string"`
	Stocks       *int                    `json:"stocks"`
	Status       *model.CollectionStatus `json:"status" swaggertype:"string" enums:"open,closed"`
}

// ListCollections godoc
// @Summary List collections
// @Tags collections
// @Produce json
// @Param owner_id query int false "Only collections of this owner"
// @Param with_owner query bool false "Join owner name and email; combines with owner_id"
// @Success 200 {array} model.Collection
// @Failure 400 {object} errors.ErrorResponse
// @Router /collections [get]
func (h *CollectionHandler) ListCollections(c echo.Context) error {
	ctx := c.Request().Context()

	ownerID, byOwner, err := optionalID(c.QueryParam("owner_id"), "owner_id")
	if err != nil {
		return err
	}

	if c.QueryParam("with_owner") == "true" {
		var rows []model.CollectionWithOwner
		if byOwner {
			rows, err = h.svc.ListCollectionsByOwnerWithOwner(ctx, ownerID)
		} else {
			rows, err = h.svc.ListCollectionsWithOwner(ctx)
		}
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, rows)
	}

	var collections []model.Collection
	if byOwner {
		collections, err = h.svc.ListCollectionsByOwner(ctx, ownerID)
	} else {
		collections, err = h.svc.ListCollections(ctx)
	}
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, collections)
}

// GetCollection godoc
// @Summary Get collection by id
// @Tags collections
// @Produce json
// @Param id path int true "Collection ID"
// @Success 200 {object} model.Collection
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /collections/{id} [get]
func (h *CollectionHandler) GetCollection(c echo.Context) error {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	collection, err := h.svc.GetCollection(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, collection)
}

// CreateCollection godoc
// @Summary List a new collection owned by the caller
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCollectionRequest true "Collection data"
// @Success 201 {object} model.Collection
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /collections [post]
func (h *CollectionHandler) CreateCollection(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req CreateCollectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	collection, err := h.svc.CreateCollection(c.Request().Context(), a, service.CreateCollectionInput{
		Name:         req.Name,
		Descriptions: req.Descriptions,
		Price:        req.Price,
		Stocks:       req.Stocks,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, collection)
}

// UpdateCollection godoc
// @Summary Update an open collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param request body UpdateCollectionRequest true "Fields to change"
// @Success 200 {object} model.Collection
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /collections/{id} [put]
func (h *CollectionHandler) UpdateCollection(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	var req UpdateCollectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	collection, err := h.svc.UpdateCollection(c.Request().Context(), a, id, model.CollectionUpdate{
		Name:         req.Name,
		Descriptions: req.Descriptions,
		Price:        req.Price,
		Stocks:       req.Stocks,
		Status:       req.Status,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, collection)
}

// DeleteCollection godoc
// @Summary Delete an open collection and its bids
// @Tags collections
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /collections/{id} [delete]
func (h *CollectionHandler) DeleteCollection(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCollection(c.Request().Context(), a, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
