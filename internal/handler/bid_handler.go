package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"opensails/internal/model"
	"opensails/internal/service"
)

// BidHandler handles bid endpoints.
type BidHandler struct {
	svc service.BidService
}

// NewBidHandler creates a new bid handler.
func NewBidHandler(svc service.BidService) *BidHandler {
	return &BidHandler{svc: svc}
}

// PlaceBidRequest represents a new bid. userId defaults to the caller.
type PlaceBidRequest struct {
	CollectionID uint            `json:"collectionId" validate:"required"`
	UserID       uint            `json:"userId"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"120.00"`
}

// UpdateBidRequest represents a bid update. status=accepted runs the
// acceptance transaction.
type UpdateBidRequest struct {
	Status *model.BidStatus `json:"status" swaggertype:"string" enums:"accepted,rejected,cancelled"`
	Price  *decimal.Decimal `json:"price" swaggertype:"string"`
}

// ListBids godoc
// @Summary List bids
// @Tags bids
// @Produce json
// @Param collection_id query int false "Only bids of this collection"
// @Param details query bool false "Join bidder and collection fields (requires collection_id)"
// @Success 200 {array} model.Bid
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bids [get]
func (h *BidHandler) ListBids(c echo.Context) error {
	ctx := c.Request().Context()

	collectionID, byCollection, err := optionalID(c.QueryParam("collection_id"), "collection_id")
	if err != nil {
		return err
	}
	if !byCollection {
		bids, err := h.svc.ListBids(ctx)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, bids)
	}

	if c.QueryParam("details") == "true" {
		rows, err := h.svc.ListByCollectionWithDetails(ctx, collectionID)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, rows)
	}

	bids, err := h.svc.ListByCollection(ctx, collectionID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, bids)
}

// GetBid godoc
// @Summary Get bid by id
// @Tags bids
// @Produce json
// @Param id path int true "Bid ID"
// @Success 200 {object} model.Bid
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bids/{id} [get]
func (h *BidHandler) GetBid(c echo.Context) error {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	bid, err := h.svc.GetBid(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, bid)
}

// PlaceBid godoc
// @Summary Place a bid on an open collection
// @Tags bids
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PlaceBidRequest true "Bid data"
// @Success 201 {object} model.Bid
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /bids [post]
func (h *BidHandler) PlaceBid(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req PlaceBidRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	bid, err := h.svc.PlaceBid(c.Request().Context(), a, service.PlaceBidInput{
		CollectionID: req.CollectionID,
		UserID:       req.UserID,
		Price:        req.Price,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, bid)
}

// UpdateBid godoc
// @Summary Accept, reject, cancel or reprice a bid
// @Description status=accepted accepts the bid, rejects every other pending bid
// @Description of the collection and closes it in one transaction.
// @Tags bids
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bid_id query int true "Bid ID"
// @Param collection_id query int true "Collection ID"
// @Param request body UpdateBidRequest true "Fields to change"
// @Success 200 {array} model.Bid
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /bids [put]
func (h *BidHandler) UpdateBid(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	bidID, err := parseID(c.QueryParam("bid_id"), "bid_id")
	if err != nil {
		return err
	}
	collectionID, err := parseID(c.QueryParam("collection_id"), "collection_id")
	if err != nil {
		return err
	}
	var req UpdateBidRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	bids, err := h.svc.UpdateBid(c.Request().Context(), a, bidID, collectionID, service.UpdateBidInput{
		Status: req.Status,
		Price:  req.Price,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, bids)
}

// DeleteBid godoc
// @Summary Withdraw a pending bid
// @Tags bids
// @Security BearerAuth
// @Param bid_id query int true "Bid ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /bids [delete]
func (h *BidHandler) DeleteBid(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	bidID, err := parseID(c.QueryParam("bid_id"), "bid_id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBid(c.Request().Context(), a, bidID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
