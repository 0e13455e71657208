package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-checkout-orderflow/internal/validation"
)

// RegisterOrdersRoutes registers routes for the order API.
func RegisterOrdersRoutes(r gin.IRouter, cfg HandlerConfig) {
	h := newHandler(cfg)
	g := r.Group("/orders", h.authenticate())

	g.POST("", h.idempotent("orders", h.placeOrder))
	g.GET("/user/:user_id", h.run(h.listOrders))
	g.GET("/detail/:order_id", h.run(h.getOrder))
}

func (h *handler) placeOrder(c *gin.Context) (result, error) {
	var req validation.PlaceOrderRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return result{}, err
	}
	if err := authorizeUser(c, req.UserID); err != nil {
		return result{}, err
	}

	order, err := h.cfg.Orders.PlaceOrder(c.Request.Context(), req.UserID)
	if err != nil {
		return result{}, err
	}
	id := strconv.FormatInt(order.ID, 10)
	c.Header("Location", "/orders/detail/"+id)
	return created(orderSummary{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Status:      order.Status,
	}, id), nil
}

func (h *handler) listOrders(c *gin.Context) (result, error) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return result{}, err
	}
	if err := authorizeUser(c, userID); err != nil {
		return result{}, err
	}

	orders, err := h.cfg.Orders.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		return result{}, err
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return list(views, len(views)), nil
}

func (h *handler) getOrder(c *gin.Context) (result, error) {
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return result{}, err
	}

	order, err := h.cfg.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		return result{}, err
	}
	if err := authorizeUser(c, order.UserID); err != nil {
		return result{}, err
	}
	return ok(toOrderView(*order)), nil
}
