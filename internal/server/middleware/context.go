package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solace-dev/export-worker/internal/obs/otel"
)

// Keys stored on the gin context for the request-scoped export outcome.
const (
	ContextKeyRequestID      = "request_id"
	ContextKeyExportStatus   = "export_status"
	ContextKeyExportFormat   = "export_format"
	ContextKeyRenderDuration = "render_duration"
	ContextKeyDocumentSize   = "document_size"
)

// Plain-text bodies for every rejection the service emits.
const (
	MsgUnauthorized     = "Unauthorized"
	MsgUnsupportedType  = "Unsupported type"
	MsgMalformedPayload = "Malformed payload"
	MsgMethodNotAllowed = "Method not allowed"
	MsgPayloadTooLarge  = "Payload too large"
	MsgTooManyRequests  = "Too many requests"
	MsgRenderingFailed  = "Rendering failed"
	MsgInternalError    = "Internal server error"
)

// Reject writes a plain-text error, records the outcome and aborts the chain.
func Reject(c *gin.Context, code int, status, msg string) {
	c.Set(ContextKeyExportStatus, status)
	c.String(code, msg)
	c.Abort()
}

// RecordRender stores the render duration and document size for later middleware.
func RecordRender(c *gin.Context, d time.Duration, size int) {
	c.Set(ContextKeyRenderDuration, d)
	c.Set(ContextKeyDocumentSize, size)
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// statusFor falls back to a status derived from the HTTP code when no
// handler recorded one.
func statusFor(c *gin.Context) string {
	if s := c.GetString(ContextKeyExportStatus); s != "" {
		return s
	}
	if c.Writer.Status() >= http.StatusInternalServerError {
		return otel.StatusInternalError
	}
	return otel.StatusUnknown
}
