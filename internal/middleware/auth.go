package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"inkpress/internal/apperr"
	"inkpress/internal/auth"
	"inkpress/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// TokenValidator resolves a bearer token to its row.
type TokenValidator interface {
	Validate(ctx context.Context, plainText string) (*models.AccessToken, error)
}

// PrincipalLoader resolves a user's roles and permissions.
type PrincipalLoader interface {
	Principal(ctx context.Context, userID uint) (auth.Principal, error)
}

// LoadPrincipal attaches the caller's principal to the request context when a
// valid bearer token is present. It never aborts; Gate decides.
func LoadPrincipal(tokens TokenValidator, registry PrincipalLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		plain, ok := extractBearerToken(c.GetHeader(authHeader))
		if !ok {
			c.Next()
			return
		}

		token, err := tokens.Validate(c.Request.Context(), plain)
		if err != nil {
			if !errors.Is(err, apperr.ErrUnauthenticated) {
				log.Printf("token validation failed: %v", err)
			}
			c.Next()
			return
		}

		principal, err := registry.Principal(c.Request.Context(), token.UserID)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				log.Printf("load principal for user %d: %v", token.UserID, err)
			}
			c.Next()
			return
		}
		principal.Token = token

		c.Request = c.Request.WithContext(auth.ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// Gate enforces policy against the principal loaded for the request.
func Gate(policy auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var current *auth.Principal
		if p, ok := auth.PrincipalFromContext(c.Request.Context()); ok {
			current = &p
		}

		switch policy.Evaluate(current) {
		case auth.Allowed:
			c.Next()
		case auth.Unauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		default:
			msg := "User does not have the right permissions."
			if policy.Role != "" && !current.HasRole(policy.Role) {
				msg = "User does not have the right roles."
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": msg})
		}
	}
}

// CurrentPrincipal returns the principal LoadPrincipal attached, if any.
func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	return auth.PrincipalFromContext(c.Request.Context())
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}
