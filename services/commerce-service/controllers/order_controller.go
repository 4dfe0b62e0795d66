package controllers

import (
	"net/http"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/middleware"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/gin-gonic/gin"
)

// OrderController serves drafts, commits and the sales ledger
type OrderController struct {
	engine    OrderEngine
	drafts    DraftService
	invoices  InvoiceService
	customers CustomerService
	catalog   CatalogService
}

func NewOrderController(engine OrderEngine, drafts DraftService, invoices InvoiceService, customers CustomerService, catalog CatalogService) *OrderController {
	return &OrderController{
		engine:    engine,
		drafts:    drafts,
		invoices:  invoices,
		customers: customers,
		catalog:   catalog,
	}
}

// CreateDraft turns the caller's cart into a draft for the seller
func (oc *OrderController) CreateDraft(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	order, err := oc.drafts.CreateFromCart(c.Request.Context(), buyerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Draft order created", "order": order})
}

func (oc *OrderController) GetDraft(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	orderID, err := pathID(c, "orderId", "order id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	draft, err := oc.drafts.Get(c.Request.Context(), callerID, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (oc *OrderController) UpdateDraft(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	orderID, err := pathID(c, "orderId", "order id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}

	draft, err := oc.drafts.Update(c.Request.Context(), callerID, orderID, req.Products)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// CommitDraft confirms a draft into a Sale/Purchase pair
func (oc *OrderController) CommitDraft(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.CommitDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	orderID, err := services.ParseObjectID(req.OrderID, "order id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	res, err := oc.engine.CommitDraft(c.Request.Context(), callerID, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": res})
}

// CreateOrder records a manual sale for a business or a walk-in customer
func (oc *OrderController) CreateOrder(c *gin.Context) {
	sellerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}

	res, err := oc.engine.CreateOrder(c.Request.Context(), sellerID, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": res})
}

func (oc *OrderController) AddCustomer(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.AddCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}

	customer, err := oc.customers.Add(c.Request.Context(), businessID, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (oc *OrderController) ListSales(c *gin.Context) {
	sellerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	sales, err := oc.engine.ListSales(c.Request.Context(), sellerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "count": len(sales)})
}

func (oc *OrderController) ListPurchases(c *gin.Context) {
	buyerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	purchases, err := oc.engine.ListPurchases(c.Request.Context(), buyerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases, "count": len(purchases)})
}

// GetOrder returns a Sale or a Purchase by id
func (oc *OrderController) GetOrder(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	id, err := pathID(c, "orderId", "order id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	entry, err := oc.engine.GetLedgerEntry(c.Request.Context(), callerID, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (oc *OrderController) GetInvoice(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	id, err := pathID(c, "orderId", "order id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	link, err := oc.invoices.GetLink(c.Request.Context(), callerID, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// GetCatalog lists a seller's products priced for the caller
func (oc *OrderController) GetCatalog(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	sellerID, err := pathID(c, "businessId", "business id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	products, err := oc.catalog.ResolveCatalog(c.Request.Context(), sellerID, callerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}
