// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication against the external
// identity provider. Tokens are HS256-signed JWTs; the middleware validates
// signature, expiry, and (optionally) issuer, then stashes the subject and
// profile claims in the Gin context for handlers:
//
//   - "userID":   the provider's subject identifier (claims.sub)
//   - "email":    the email claim, when present
//   - "username": the preferred username claim, when present
//
// The application never issues tokens itself; it only verifies what the
// provider signed.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the expected token payload: the registered JWT claims plus
// the profile fields the identity provider includes.
type AuthClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// AuthOptions configures the Auth middleware.
type AuthOptions struct {
	// Secret is the HMAC key shared with the identity provider. Required.
	Secret string
	// Issuer, when non-empty, must match the token's iss claim.
	Issuer string
}

// Auth returns a Gin middleware that rejects requests without a valid bearer
// token. On success it populates userID/email/username in the context; on
// failure it responds 401 with the standard error envelope and aborts.
func Auth(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			authFail(c, "authorization header required")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			authFail(c, "authorization header must be 'Bearer <token>'")
			return
		}

		claims := &AuthClaims{}
		parsers := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if opts.Issuer != "" {
			parsers = append(parsers, jwt.WithIssuer(opts.Issuer))
		}
		token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims,
			func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(opts.Secret), nil
			},
			parsers...,
		)
		if err != nil || !token.Valid {
			authFail(c, "invalid or expired token")
			return
		}
		if claims.Subject == "" {
			authFail(c, "token has no subject")
			return
		}

		c.Set("userID", claims.Subject)
		if claims.Email != "" {
			c.Set("email", claims.Email)
		}
		if claims.Username != "" {
			c.Set("username", claims.Username)
		}
		c.Next()
	}
}

// authFail writes the standard 401 envelope and aborts the request.
func authFail(c *gin.Context, msg string) {
	rid := c.Writer.Header().Get("X-Request-ID")
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": rid,
		"code":       "unauthorized",
		"message":    msg,
	})
}
