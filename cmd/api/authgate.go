package main

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PaulBabatuyi/semx/internal/auth"
)

// gin context key for storing auth claims
const claimsKey = "semx.claims"

// getClaims extracts auth claims from the context, if present.
func getClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// userID returns the authenticated caller. Only valid behind authGate.
func userID(c *gin.Context) string {
	claims, _ := getClaims(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authGate returns middleware that enforces JWT authentication. A missing
// token answers 401 and an invalid one 403. With allowQuery the token may
// also come from the "token" query parameter.
func (s *Server) authGate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}

		claims, err := s.svc.Auth.Authenticate(token)
		if err != nil {
			s.abort(c, err)
			return
		}

		// attach claims into context for handlers
		c.Set(claimsKey, claims)
		c.Next()
	}
}
