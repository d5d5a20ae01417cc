package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solace-dev/export-worker/internal/obs/otel"
)

// Metrics records one export request per call once the chain has finished,
// using the outcome stored on the context by the handler and other middleware.
func Metrics(rec *otel.ExportRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		opts := otel.RequestOptions{
			Format: c.GetString(ContextKeyExportFormat),
			Status: statusFor(c),
		}
		if d, ok := c.Get(ContextKeyRenderDuration); ok {
			opts.RenderDuration, _ = d.(time.Duration)
		}
		if s, ok := c.Get(ContextKeyDocumentSize); ok {
			opts.Size, _ = s.(int)
		}
		rec.RecordRequest(c.Request.Context(), opts)
	}
}
