package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// placeOrder converts the posted cart into an order for the caller
func (h *Handler) placeOrder(c *gin.Context) {
	caller, _ := callerFrom(c)

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no such cart", "field": "cart_id"})
		return
	}

	detail, err := h.orders.PlaceOrder(c.Request.Context(), cartID, caller.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrder(detail))
}

func (h *Handler) listOrders(c *gin.Context) {
	caller, _ := callerFrom(c)

	details, err := h.orders.ListOrders(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]orderResponse, 0, len(details))
	for i := range details {
		resp = append(resp, toOrder(&details[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getOrder(c *gin.Context) {
	caller, _ := callerFrom(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.orders.GetOrder(c.Request.Context(), id, caller)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(detail))
}

// updateOrder changes the payment status. Only payment_status is writable.
func (h *Handler) updateOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	detail, err := h.orders.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(detail))
}
