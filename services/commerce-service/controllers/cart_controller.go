package controllers

import (
	"net/http"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/middleware"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/gin-gonic/gin"
)

type CartController struct {
	carts  CartService
	engine OrderEngine
}

func NewCartController(carts CartService, engine OrderEngine) *CartController {
	return &CartController{carts: carts, engine: engine}
}

// GetCart returns the caller's cart, empty when none exists
func (cc *CartController) GetCart(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	cart, err := cc.carts.Get(c.Request.Context(), buyerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds a product or replaces its line
func (cc *CartController) AddItem(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	productID, err := services.ParseObjectID(req.ProductID, "product id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	cart, err := cc.carts.AddItem(c.Request.Context(), buyerID, services.AddItemInput{
		ProductID: productID,
		Quantity:  req.Quantity,
		Price:     req.Price,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem takes one unit of a product off the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	productID, err := pathID(c, "productId", "product id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	cart, err := cc.carts.RemoveItem(c.Request.Context(), buyerID, productID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (cc *CartController) ClearCart(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := cc.carts.Clear(c.Request.Context(), buyerID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (cc *CartController) IsEmpty(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	empty, err := cc.carts.IsEmpty(c.Request.Context(), buyerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_empty": empty})
}

// PlaceOrder checks the whole cart out as a Sale/Purchase pair
func (cc *CartController) PlaceOrder(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	res, err := cc.engine.Checkout(c.Request.Context(), buyerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": res})
}
