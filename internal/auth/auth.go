// Package auth provides middleware and helpers for JWT-based authentication
// of HTTP requests. Tokens are carried as "Bearer" credentials in the
// Authorization header.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/placeshare/internal/logger"
	"github.com/patric-chuzhbe/placeshare/internal/models"
)

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds a user-specific identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

var errInvalidToken = errors.New("invalid authentication token")

// Auth handles bearer token issuance and verification.
type Auth struct {
	// tokenSigningSecretKey is the HMAC key used to sign and verify JWTs.
	tokenSigningSecretKey []byte

	// tokenTTL limits how long an issued token stays valid.
	tokenTTL time.Duration
}

// New creates a new Auth handler with the given signing secret and token lifetime.
func New(tokenSigningSecretKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		tokenSigningSecretKey: tokenSigningSecretKey,
		tokenTTL:              tokenTTL,
	}
}

// BuildJWTString issues a signed token embedding the given user ID,
// expiring after the configured TTL.
func (a *Auth) BuildJWTString(userID string) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.tokenSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies a token's signature and expiry and returns the
// embedded user ID.
func (a *Auth) GetUserIDFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.tokenSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	return claims.UserID, nil
}

// CheckAuth is an HTTP middleware gating the mutating place routes.
// It requires a valid "Bearer <token>" Authorization header and stores the
// authenticated user's ID in the request context for downstream handlers.
// Any failure is reported as 401 with the uniform JSON error shape.
func (a *Auth) CheckAuth(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := getBearerToken(request)
		if err != nil {
			a.writeAuthenticationFailed(response)
			return
		}

		userID, err := a.GetUserIDFromToken(tokenString)
		if err != nil || userID == "" {
			a.writeAuthenticationFailed(response)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) writeAuthenticationFailed(response http.ResponseWriter) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusUnauthorized)
	err := json.NewEncoder(response).Encode(models.MessageResponse{Message: "Authentication failed"})
	if err != nil {
		logger.Log.Debugln("Error encoding the authentication failure response: ", zap.Error(err))
	}
}

func getBearerToken(request *http.Request) (string, error) {
	header := request.Header.Get("Authorization")
	if header == "" {
		return "", errInvalidToken
	}

	// Authorization access: 'Bearer TOKEN'
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errInvalidToken
	}

	return parts[1], nil
}
