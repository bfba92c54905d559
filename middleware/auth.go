package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
)

var (
	errNoToken      = errors.New("token is required")
	errInvalidToken = errors.New("invalid or expired token")
)

// TokenParser validates HMAC-signed access tokens.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(strings.TrimSpace(secret))}
}

// Parse returns the claims of a valid token.
func (p *TokenParser) Parse(tokenStr string) (jwt.MapClaims, error) {
	if len(p.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}

// tokenFromRequest prefers the "token" cookie set by the login flow and
// falls back to a bearer header.
func tokenFromRequest(c *gin.Context) (string, error) {
	if v, err := c.Cookie("token"); err == nil && v != "" {
		return v, nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errNoToken
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errInvalidToken
	}
	return strings.TrimSpace(header[len("Bearer "):]), nil
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) {
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	role, _ := claims["role"].(string)
	c.Set(UserContextKey, userID)
	c.Set(RoleContextKey, role)
}

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(parser *TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := tokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := parser.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and lets anonymous requests through.
func OptionalAuth(parser *TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, err := tokenFromRequest(c); err == nil {
			if claims, err := parser.Parse(tokenStr); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// AdminOnly restricts access to admin roles. Must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleContextKey)
		if role != "admin" && role != "super_admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}
