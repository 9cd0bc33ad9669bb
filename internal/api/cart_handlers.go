package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createCart(c *gin.Context) {
	cart, err := h.carts.CreateCart(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cartResponse{
		ID:        cart.ID,
		CreatedAt: cart.CreatedAt,
		Items:     []cartItemResponse{},
	})
}

func (h *Handler) getCart(c *gin.Context) {
	id, ok := cartParam(c)
	if !ok {
		return
	}
	view, err := h.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCart(view))
}

func (h *Handler) deleteCart(c *gin.Context) {
	id, ok := cartParam(c)
	if !ok {
		return
	}
	if err := h.carts.DeleteCart(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCartItems(c *gin.Context) {
	id, ok := cartParam(c)
	if !ok {
		return
	}
	lines, err := h.carts.ListItems(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]cartItemResponse, 0, len(lines))
	for _, line := range lines {
		items = append(items, toCartItem(line))
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getCartItem(c *gin.Context) {
	id, ok := cartParam(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}
	line, err := h.carts.GetItem(c.Request.Context(), id, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartItem(*line))
}

// addCartItem adds to an existing line when the product is already in the cart
func (h *Handler) addCartItem(c *gin.Context) {
	id, ok := cartParam(c)
	if !ok {
		return
	}
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	line, err := h.carts.AddItem(c.Request.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartItem(*line))
}

func (h *Handler) updateCartItem(c *gin.Context) {
	id, ok := cartParam(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	line, err := h.carts.UpdateItem(c.Request.Context(), id, itemID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartItem(*line))
}

func (h *Handler) removeCartItem(c *gin.Context) {
	id, ok := cartParam(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
