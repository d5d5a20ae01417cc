package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/solace-dev/export-worker/internal/export"
	"github.com/solace-dev/export-worker/internal/obs/otel"
	"github.com/solace-dev/export-worker/internal/payload"
	"github.com/solace-dev/export-worker/internal/server/middleware"
)

// requirePost answers every method other than POST with 405.
func requirePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Header("Allow", http.MethodPost)
			middleware.Reject(c, http.StatusMethodNotAllowed, otel.StatusMethodNotAllowed, middleware.MsgMethodNotAllowed)
			return
		}
		c.Next()
	}
}

// handleExport decodes the request, renders the document and writes it back
// verbatim. It runs after authentication and the body limit.
func (s *Server) handleExport(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.Reject(c, http.StatusRequestEntityTooLarge, otel.StatusTooLarge, middleware.MsgPayloadTooLarge)
			return
		}
		_ = c.Error(err)
		middleware.Reject(c, http.StatusBadRequest, otel.StatusMalformed, middleware.MsgMalformedPayload)
		return
	}

	res := payload.Decode(body)
	if !res.OK() {
		_ = c.Error(res.Err)
		middleware.Reject(c, http.StatusBadRequest, otel.StatusMalformed, middleware.MsgMalformedPayload)
		return
	}
	req := res.Request

	format, err := export.ParseFormat(req.Type)
	if err != nil {
		middleware.Reject(c, http.StatusBadRequest, otel.StatusUnsupportedType, middleware.MsgUnsupportedType)
		return
	}
	c.Set(middleware.ContextKeyExportFormat, string(format))

	result, elapsed, err := s.render(c.Request.Context(), req, format)
	if err != nil {
		middleware.RecordRender(c, elapsed, 0)
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFrom(c),
			"format":     format,
		}).WithError(err).Error("Rendering failed")
		_ = c.Error(err)
		middleware.Reject(c, http.StatusInternalServerError, otel.StatusRenderError, middleware.MsgRenderingFailed)
		return
	}
	middleware.RecordRender(c, elapsed, len(result.Data))
	c.Set(middleware.ContextKeyExportStatus, otel.StatusSuccess)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(req.Title, format)))
	c.Header("Content-Length", strconv.Itoa(len(result.Data)))
	c.Data(http.StatusOK, result.MIMEType(), result.Data)
}

// render runs the exporter under the configured render timeout. A result
// that arrives after the deadline is discarded.
func (s *Server) render(ctx context.Context, req payload.ExportRequest, format export.Format) (*export.ExportResult, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RenderTimeout)
	defer cancel()

	start := time.Now()
	doc := export.NewDocument(req.Title, req.Content)
	result, err := export.Export(ctx, doc, format, export.WithPDFCompression(s.config.PDFCompress))
	elapsed := time.Since(start)

	if err == nil && ctx.Err() != nil {
		err = &export.RenderError{Format: format, Err: ctx.Err()}
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("render exceeded %v: %w", s.config.RenderTimeout, err)
	}
	return result, elapsed, err
}
