package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserID = "user_id"
	ContextRoles  = "roles"

	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Authenticate resolves the caller from a bearer token or, failing that, the session cookie.
// Anonymous requests pass through; use RequireUser to reject them.
func Authenticate(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			sub, roles, err := parseToken(key, strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			c.Set(ContextUserID, sub)
			c.Set(ContextRoles, roles)
			c.Next()
			return
		}

		if _, ok := c.Get(sessions.DefaultKey); ok {
			session := sessions.Default(c)
			if id, ok := session.Get(sessionUserID).(string); ok && id != "" {
				roles := []string{RoleUser}
				if admin, _ := session.Get(sessionAdmin).(bool); admin {
					roles = append(roles, RoleAdmin)
				}
				c.Set(ContextUserID, id)
				c.Set(ContextRoles, roles)
			}
		}
		c.Next()
	}
}

func parseToken(secret []byte, tokenStr string) (string, []string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if token.Method.Alg() != "HS512" {
			return nil, fmt.Errorf("only HS512 is allowed")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", nil, fmt.Errorf("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", nil, fmt.Errorf("token has no subject")
	}
	return sub, rolesFromClaims(claims), nil
}

func rolesFromClaims(claims jwt.MapClaims) []string {
	var roles []string
	switch raw := claims["roles"].(type) {
	case []interface{}:
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	case []string:
		roles = append(roles, raw...)
	case string:
		roles = append(roles, raw)
	}
	return roles
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access only"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func IsAdmin(c *gin.Context) bool {
	for _, r := range c.GetStringSlice(ContextRoles) {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
