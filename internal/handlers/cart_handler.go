package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/validation"
)

// RegisterCartRoutes registers routes for the cart API.
func RegisterCartRoutes(r gin.IRouter, cfg HandlerConfig) {
	h := newHandler(cfg)
	g := r.Group("/cart", h.authenticate())

	g.GET("", h.run(h.viewCart))
	g.POST("/add", h.run(h.addToCart))
	g.DELETE("/remove", h.run(h.removeFromCart))
}

func (h *handler) viewCart(c *gin.Context) (result, error) {
	userID, err := parseID("user_id", c.Query("user_id"))
	if err != nil {
		return result{}, err
	}
	if err := authorizeUser(c, userID); err != nil {
		return result{}, err
	}

	items, err := h.cfg.Cart.View(c.Request.Context(), userID)
	if err != nil {
		return result{}, err
	}
	return list(toCartView(userID, items), len(items)), nil
}

func (h *handler) addToCart(c *gin.Context) (result, error) {
	var req validation.AddToCartRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return result{}, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := authorizeUser(c, req.UserID); err != nil {
		return result{}, err
	}

	line, err := h.cfg.Cart.Add(c.Request.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return result{}, err
	}
	return ok(gin.H{"user_id": line.UserID, "product_id": line.ProductID, "quantity": line.Quantity}), nil
}

func (h *handler) removeFromCart(c *gin.Context) (result, error) {
	var req validation.RemoveFromCartRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return result{}, err
	}
	if err := authorizeUser(c, req.UserID); err != nil {
		return result{}, err
	}

	removed, err := h.cfg.Cart.Remove(c.Request.Context(), req.UserID, req.ProductID)
	if err != nil {
		return result{}, err
	}
	if !removed {
		return result{}, apperr.NotFound("product %d is not in the cart", req.ProductID)
	}
	return ok(gin.H{"message": "removed from cart"}), nil
}
