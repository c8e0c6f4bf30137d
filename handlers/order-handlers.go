package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/auth"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type CheckoutRequest struct {
	Items      []pricing.Line `json:"items"`
	CouponCode string         `json:"coupon_code"`
}

// Checkout prices the submitted cart, persists the order snapshot, and
// publishes the order-placed event. Payment is a placeholder: no gateway is
// involved and the order starts out pending.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request CheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(request.Items) == 0 {
		slog.Error("checkout with empty cart", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	breakdown, err := h.engine.Price(request.Items, request.CouponCode)
	if err != nil {
		slog.Error("pricing rejected cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": pricingErrorMessage(err)})
		return
	}

	order, err := h.o.CreateOrder(c.Request.Context(), claims.Subject, request.Items, breakdown)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrProductNotFound):
			slog.Error("cart references unknown product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product in cart no longer exists"})
		case errors.Is(err, orders.ErrEmptyOrder), errors.Is(err, pricing.ErrInvalidLine):
			slog.Error("invalid order lines", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order lines"})
		default:
			slog.Error("error creating order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	h.publishOrderPlaced(traceId, order)

	slog.Info("order created", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", order.ID), slog.String("UserID", order.UserID), slog.String("Total", order.Total.String()))
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders returns the caller's orders; admins see every order.
func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var (
		list []orders.Order
		err  error
	)
	if auth.Allowed(claims.Role, auth.ResourceOrder, auth.ActionReadAny) {
		list, err = h.o.ListAll(c.Request.Context())
	} else {
		list, err = h.o.ListForUser(c.Request.Context(), claims.Subject)
	}
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	if list == nil {
		list = []orders.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID := c.Param("id")
	order, err := h.o.GetForCaller(c.Request.Context(), orderID, claims.Subject, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrForbidden):
			slog.Error("order access denied", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderID), slog.String("UserID", claims.Subject))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		default:
			slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus drives the order state machine. Admins may request any
// legal edge; the owning customer may only cancel, and cancellation is only
// legal while the order is still pending.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request struct {
		Status orders.Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Status == "" {
		slog.Error("invalid status payload", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	orderID := c.Param("id")
	order, err := h.o.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	isAdmin := claims.Role == auth.RoleAdmin
	isOwnerCancel := order.UserID == claims.Subject && request.Status == orders.StatusCancelled
	if !isAdmin && !isOwnerCancel {
		slog.Error("status change denied", slog.String(logkey.TraceID, traceId),
			slog.String("OrderID", orderID), slog.String("Role", claims.Role))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	fromStatus := order.Status
	updated, err := h.o.Transition(c.Request.Context(), orderID, request.Status)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrIllegalTransition):
			slog.Error("illegal status transition", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderID), slog.String("From", string(fromStatus)), slog.String("To", string(request.Status)))
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Illegal status transition"})
		case errors.Is(err, orders.ErrStatusConflict):
			slog.Error("concurrent status change", slog.String(logkey.TraceID, traceId), slog.String("OrderID", orderID))
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Order status changed concurrently"})
		default:
			slog.Error("error updating order status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	h.publishStatusChanged(traceId, updated, fromStatus)

	slog.Info("order status updated", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", orderID), slog.String("From", string(fromStatus)), slog.String("To", string(updated.Status)))
	c.JSON(http.StatusOK, gin.H{"order": updated})
}

func pricingErrorMessage(err error) string {
	switch {
	case errors.Is(err, pricing.ErrCouponNotFound):
		return "Invalid coupon code"
	case errors.Is(err, pricing.ErrCouponExpired):
		return "Coupon has expired"
	case errors.Is(err, pricing.ErrCouponMinimum):
		return "Order does not meet the coupon minimum"
	case errors.Is(err, pricing.ErrInvalidLine):
		return "Invalid cart line"
	default:
		return "Pricing failed"
	}
}

// Events are best-effort: a broker outage must never fail a checkout, so
// failures are logged and the response proceeds.
func (h *Handler) publishOrderPlaced(traceId string, order orders.Order) {
	if h.k == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		payload, err := json.Marshal(kafka.OrderPlacedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Total:     order.Total,
			Coupon:    order.CouponCode,
			CreatedAt: order.CreatedAt,
		})
		if err != nil {
			slog.Error("failed to marshal order-placed event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			return
		}
		if err := h.k.ProduceMessage(ctx, kafka.TopicOrderPlaced, []byte(order.ID), payload); err != nil {
			slog.Error("failed to produce order-placed event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}()
}

func (h *Handler) publishStatusChanged(traceId string, order orders.Order, from orders.Status) {
	if h.k == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		payload, err := json.Marshal(kafka.OrderStatusChangedEvent{
			OrderID:    order.ID,
			FromStatus: string(from),
			ToStatus:   string(order.Status),
			ChangedAt:  order.UpdatedAt,
		})
		if err != nil {
			slog.Error("failed to marshal status-changed event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			return
		}
		if err := h.k.ProduceMessage(ctx, kafka.TopicOrderStatusChanged, []byte(order.ID), payload); err != nil {
			slog.Error("failed to produce status-changed event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}()
}
