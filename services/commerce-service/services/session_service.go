package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	"github.com/b2bconnect/commerce-backend/services/common/auth"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SessionService rotates refresh tokens. Login itself happens elsewhere.
type SessionService struct {
	businesses repository.BusinessRepo
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionService(businesses repository.BusinessRepo, accessTTL, refreshTTL time.Duration) *SessionService {
	return &SessionService{businesses: businesses, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// match the one stored on the business; the stored token is replaced.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := auth.ParseAndValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}
	rawID, err := auth.BusinessID(claims)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}
	businessID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}

	business, err := s.businesses.FindByID(ctx, businessID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load business", err)
	}
	if business.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(business.RefreshToken), []byte(refreshToken)) != 1 {
		logger.Warn(ctx, "Refresh token reuse or mismatch", zap.String("business_id", rawID))
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}

	pair, err := auth.GenerateTokenPair(rawID, business.Contact, s.accessTTL, s.refreshTTL)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}
	if err := s.businesses.SetRefreshToken(ctx, businessID, pair.RefreshToken); err != nil {
		return nil, apperrors.Internal("Failed to store refresh token", err)
	}
	return pair, nil
}
