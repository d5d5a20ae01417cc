package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solace-dev/export-worker/internal/obs/otel"
)

// BodyLimit caps the request body at maxBytes. A declared Content-Length over
// the cap is rejected up front; otherwise reads past the cap fail with
// *http.MaxBytesError, which handlers map through IsBodyTooLarge.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			Reject(c, http.StatusRequestEntityTooLarge, otel.StatusTooLarge, MsgPayloadTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from exceeding BodyLimit.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
