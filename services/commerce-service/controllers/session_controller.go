package controllers

import (
	"net/http"

	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/gin-gonic/gin"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionController struct {
	sessions SessionService
}

func NewSessionController(sessions SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

// Refresh rotates the token pair. The refresh token comes from the body or
// the refresh_token cookie.
func (sc *SessionController) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie("refresh_token")
	}
	if token == "" {
		apperrors.Respond(c, apperrors.Unauthorized("Refresh token not found"))
		return
	}

	pair, err := sc.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}
