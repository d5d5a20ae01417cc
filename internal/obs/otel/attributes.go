package otel

import "go.opentelemetry.io/otel/attribute"

var (
	// AttrExportFormat is the requested format ("pdf", "docx", "csv" or "unknown")
	AttrExportFormat = attribute.Key("export.format")

	// AttrExportStatus is the request outcome, one of the Status* constants
	AttrExportStatus = attribute.Key("export.status")
)

// Request outcomes recorded under AttrExportStatus.
const (
	StatusSuccess          = "success"
	StatusUnauthorized     = "unauthorized"
	StatusUnsupportedType  = "unsupported_type"
	StatusMalformed        = "malformed"
	StatusTooLarge         = "too_large"
	StatusMethodNotAllowed = "method_not_allowed"
	StatusRateLimited      = "rate_limited"
	StatusRenderError      = "render_error"
	StatusInternalError    = "internal_error"
	StatusUnknown          = "unknown"
)

// FormatUnknown is recorded when the request never named a valid format.
const FormatUnknown = "unknown"
