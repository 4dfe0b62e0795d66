package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Token types carried in the "typ" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrSecretNotConfigured = errors.New("JWT secret not configured")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrMissingSubject      = errors.New("token has no business id")
)

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

func init() {
	_ = godotenv.Load()
	if secret := strings.TrimSpace(os.Getenv("JWT_SECRET")); secret != "" {
		secretKey = []byte(secret)
	}
}

// SetSecret replaces the signing key, e.g. after it was fetched from Secrets Manager.
func SetSecret(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = strings.TrimSpace(secret)
	if secret == "" {
		secretKey = nil
		return
	}
	secretKey = []byte(secret)
}

func currentSecret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return secretKey
}

// TokenPair is issued on login and on refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GenerateTokenPair mints an access and a refresh token for a business.
func GenerateTokenPair(businessID, contact string, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	accessToken, err := generateToken(businessID, contact, TokenTypeAccess, accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(businessID, contact, TokenTypeRefresh, refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func generateToken(businessID, contact, tokenType string, duration time.Duration) (string, error) {
	secret := currentSecret()
	if secret == nil {
		return "", ErrSecretNotConfigured
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"id":      businessID,
		"sub":     businessID,
		"contact": contact,
		"typ":     tokenType,
		"exp":     now.Add(duration).Unix(),
		"iat":     now.Unix(),
	}
	if tokenType == TokenTypeRefresh {
		claims["jti"] = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	secret := currentSecret()
	if secret == nil {
		return nil, ErrSecretNotConfigured
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, ErrInvalidTokenType
		}
	}
	return claims, nil
}

// BusinessID returns the business id a token was issued for. Older tokens
// only carry "id", newer ones also set "sub".
func BusinessID(claims jwt.MapClaims) (string, error) {
	for _, key := range []string{"id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", ErrMissingSubject
}
