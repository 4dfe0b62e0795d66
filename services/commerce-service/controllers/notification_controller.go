package controllers

import (
	"net/http"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/middleware"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	notifications NotificationService
	engine        OrderEngine
}

func NewNotificationController(notifications NotificationService, engine OrderEngine) *NotificationController {
	return &NotificationController{notifications: notifications, engine: engine}
}

func (nc *NotificationController) Create(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	n, err := nc.notifications.Create(c.Request.Context(), callerID, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// List accepts ?filter=incoming|outgoing|purchases|pending|unread
func (nc *NotificationController) List(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	notes, err := nc.notifications.List(c.Request.Context(), callerID, c.Query("filter"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes, "count": len(notes)})
}

func (nc *NotificationController) UnreadCount(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	count, err := nc.notifications.UnreadCount(c.Request.Context(), callerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (nc *NotificationController) GetByOrder(c *gin.Context) {
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
	notes, err := nc.notifications.GetByOrder(c.Request.Context(), callerID, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	id, err := pathID(c, "id", "notification id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	n, err := nc.notifications.MarkRead(c.Request.Context(), callerID, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// Reject declines the draft a notification points at
func (nc *NotificationController) Reject(c *gin.Context) {
	callerID, err := middleware.GetBusinessID(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	id, err := pathID(c, "id", "notification id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	n, err := nc.engine.Reject(c.Request.Context(), callerID, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order rejected", "notification": n})
}
