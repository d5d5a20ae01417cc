package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/solace-dev/export-worker/internal/obs/otel"
)

const bearerPrefix = "Bearer "

// AuthMiddleware checks requests against the shared bearer secret
type AuthMiddleware struct {
	digest [sha256.Size]byte
}

// NewAuthMiddleware creates a new authentication middleware for token.
// Only a digest of the token is retained.
func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{
		digest: sha256.Sum256([]byte(token)),
	}
}

// Authorized reports whether header is exactly "Bearer <token>".
func (am *AuthMiddleware) Authorized(header string) bool {
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	got := sha256.Sum256([]byte(header[len(bearerPrefix):]))
	return subtle.ConstantTimeCompare(got[:], am.digest[:]) == 1
}

// BearerAuth rejects every request without the correct credential with the
// same 401 response, whether the header was missing, malformed or wrong.
func (am *AuthMiddleware) BearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.Authorized(c.GetHeader("Authorization")) {
			c.Next()
			return
		}

		logrus.WithFields(logrus.Fields{
			"request_id": RequestIDFrom(c),
			"client_ip":  c.ClientIP(),
		}).Debug("Rejected request without valid bearer credential")

		c.Header("WWW-Authenticate", "Bearer")
		Reject(c, http.StatusUnauthorized, otel.StatusUnauthorized, MsgUnauthorized)
	}
}
