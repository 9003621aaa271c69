package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context key for the authenticated principal
const ContextPrincipalKey = "principal"

// jwtClaims mirrors the payload written by the auth service.
type jwtClaims struct {
	UserID    string      `json:"uid"`
	Role      domain.Role `json:"role"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication. Only
// access tokens pass; refresh tokens are rejected here.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}
		if !token.Valid || claims.UserID == "" || claims.Role == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}
		if claims.TokenType != "access" {
			abortWithError(c, http.StatusUnauthorized, "Token is not an access token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid user id in token")
			return
		}

		c.Set(ContextPrincipalKey, service.Principal{ID: userID, Role: claims.Role})
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if the user has one of the
// required roles. Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := getPrincipal(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
			return
		}

		for _, role := range allowedRoles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: role '%s' does not have permission", p.Role))
	}
}

// getPrincipal extracts the authenticated principal set by AuthMiddleware.
func getPrincipal(c *gin.Context) (service.Principal, error) {
	raw, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return service.Principal{}, errors.New("principal not found in context")
	}
	p, ok := raw.(service.Principal)
	if !ok {
		return service.Principal{}, errors.New("invalid principal type in context")
	}
	return p, nil
}

// handleServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, authentication 401, forbidden 403, not found 404.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrInvalidAssignee),
		errors.Is(err, service.ErrGroupTitleNeeded):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed),
		errors.Is(err, service.ErrInvalidRefreshToken):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotParticipant):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// parseObjectIDParam parses a path parameter as a Mongo ObjectID. A malformed
// id reads as not found rather than a validation error, so probing with junk
// ids looks the same as probing with unknown ones.
func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "resource not found")
		return primitive.NilObjectID, false
	}
	return id, true
}
