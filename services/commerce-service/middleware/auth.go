package middleware

import (
	"strings"

	"github.com/b2bconnect/commerce-backend/services/common/auth"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BusinessContextKey holds the authenticated business id (hex string)
const BusinessContextKey = "businessID"

// Auth verifies the bearer access token and stores the business id
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperrors.Respond(c, apperrors.Unauthorized("Token is required"))
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			apperrors.Respond(c, apperrors.Unauthorized("Invalid token format"))
			return
		}

		claims, err := auth.ParseAndValidateToken(strings.TrimPrefix(header, "Bearer "), auth.TokenTypeAccess)
		if err != nil {
			apperrors.Respond(c, apperrors.Unauthorized("Invalid or expired token"))
			return
		}
		businessID, err := auth.BusinessID(claims)
		if err != nil || !primitive.IsValidObjectID(businessID) {
			apperrors.Respond(c, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		c.Set(BusinessContextKey, businessID)
		c.Next()
	}
}

// GetBusinessID returns the caller's business id set by Auth
func GetBusinessID(c *gin.Context) (primitive.ObjectID, error) {
	if val, ok := c.Get(BusinessContextKey); ok {
		if s, ok := val.(string); ok {
			if id, err := primitive.ObjectIDFromHex(s); err == nil {
				return id, nil
			}
		}
	}
	return primitive.NilObjectID, apperrors.Unauthorized("Business not found in context")
}
