package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skateshop/storefront/internal/core/ports"
)

// CartHandler serves the caller's own cart. Lines of other users are reported
// as not found.
type CartHandler struct {
	service ports.CartService
}

func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// Get lists the caller's cart joined with current product data.
//
// @Summary      Get cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   cartLineResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	lines, err := h.service.GetCart(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartLineResponses(lines))
}

// Add puts quantity units of a product into the cart, merging with an
// existing line for the same product.
//
// @Summary      Add to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addToCartRequest  true  "Product and quantity"
// @Success      200   {object}  addToCartResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/cart [post]
func (h *CartHandler) Add(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.AddToCart(c.Request().Context(), p.ID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	msg := "cart updated"
	if res.Created {
		msg = "product added to cart"
	}
	return c.JSON(http.StatusOK, addToCartResponse{Message: msg, ID: res.LineID, Quantity: res.Quantity})
}

// Update sets the quantity of one of the caller's cart lines.
//
// @Summary      Update cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Cart line ID"
// @Param        body  body      updateCartRequest  true  "New quantity"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/cart/{id} [put]
func (h *CartHandler) Update(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.service.UpdateQuantity(c.Request().Context(), p.ID, id, req.Quantity); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "cart updated"})
}

// Remove deletes one of the caller's cart lines.
//
// @Summary      Remove cart line
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Cart line ID"
// @Success      200  {object}  cartClearedResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/cart/{id} [delete]
func (h *CartHandler) Remove(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveLine(c.Request().Context(), p.ID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartClearedResponse{Success: true, Message: "product removed from cart"})
}

// Clear empties the caller's cart. An empty cart is not an error.
//
// @Summary      Clear cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartClearedResponse
// @Router       /api/cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.ClearCart(c.Request().Context(), p.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartClearedResponse{Success: true, Message: "cart emptied"})
}
