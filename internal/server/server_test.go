package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/solace-dev/export-worker/internal/config"
	"github.com/solace-dev/export-worker/internal/obs/otel"
)

const testToken = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.AuthToken = testToken
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...ServerOption) *Server {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	s, err := NewServer(cfg, append([]ServerOption{WithLogger(quiet)}, opts...)...)
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestExport_EachFormat(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		format string
		mime   string
		magic  []byte
	}{
		{"pdf", "application/pdf", []byte("%PDF-")},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("PK")},
		{"csv", "text/csv", []byte("line1")},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := doRequest(s, http.MethodPost, "/", testToken,
				`{"type":"`+tt.format+`","title":"Quarterly Report","content":"line1\nline2\n\nline3"}`)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.mime, w.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="quarterly-report.`+tt.format+`"`, w.Header().Get("Content-Disposition"))
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.True(t, bytes.HasPrefix(w.Body.Bytes(), tt.magic))
			assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))
		})
	}
}

func TestExport_PathAgnostic(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, path := range []string{"/", "/api/generate", "/any/deep/path"} {
		w := doRequest(s, http.MethodPost, path, testToken, `{"type":"csv","content":"x"}`)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestExport_Unauthorized(t *testing.T) {
	s := newTestServer(t, testConfig())

	bodies := []string{`{"type":"pdf"}`, `{"type":"xml"}`, `not json`, ``}
	for _, token := range []string{"", "wrong", testToken + "x"} {
		for _, body := range bodies {
			w := doRequest(s, http.MethodPost, "/", token, body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Unauthorized", w.Body.String())
		}
	}
}

func TestExport_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"unsupported type", `{"type":"xml"}`, http.StatusBadRequest, "Unsupported type"},
		{"missing type", `{"title":"t","content":"c"}`, http.StatusBadRequest, "Unsupported type"},
		{"numeric type", `{"type":1}`, http.StatusBadRequest, "Unsupported type"},
		{"wrong case", `{"type":"PDF"}`, http.StatusBadRequest, "Unsupported type"},
		{"malformed json", `{"type":"pdf"`, http.StatusBadRequest, "Malformed payload"},
		{"empty body", ``, http.StatusBadRequest, "Malformed payload"},
		{"array body", `["pdf"]`, http.StatusBadRequest, "Malformed payload"},
		{"numeric content", `{"type":"csv","content":5}`, http.StatusBadRequest, "Malformed payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, http.MethodPost, "/", testToken, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		})
	}
}

func TestExport_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := doRequest(s, method, "/", testToken, "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	}
}

func TestExport_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	s := newTestServer(t, cfg)

	body := `{"type":"csv","content":"` + strings.Repeat("a", 100) + `"}`
	w := doRequest(s, http.MethodPost, "/", testToken, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Payload too large", w.Body.String())

	// the limit also applies when no length is declared
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.ContentLength = -1
	req.Header.Set("Authorization", "Bearer "+testToken)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestExport_RenderTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.RenderTimeout = time.Nanosecond
	s := newTestServer(t, cfg)

	w := doRequest(s, http.MethodPost, "/", testToken, `{"type":"docx","content":"a\nb"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Rendering failed", w.Body.String())
}

func TestExport_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	s := newTestServer(t, cfg)

	w := doRequest(s, http.MethodPost, "/", testToken, `{"type":"csv"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodPost, "/", testToken, `{"type":"csv"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", w.Body.String())
}

func TestExport_CSVRoundTrip(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := doRequest(s, http.MethodPost, "/", testToken, `{"type":"csv","content":"a,b\nc"}`)
	require.Equal(t, http.StatusOK, w.Code)

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a,b"}, {"c"}}, records)
}

func TestExport_DefaultTitleHeading(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := doRequest(s, http.MethodPost, "/", testToken, `{"type":"docx","content":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="solace-export.docx"`, w.Header().Get("Content-Disposition"))

	data := w.Body.Bytes()
	parsed, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var texts []string
	for _, item := range parsed.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			texts = append(texts, p.String())
		}
	}
	assert.Equal(t, []string{"Solace Export", ""}, texts)
}

func TestExport_PDFTitleDefault(t *testing.T) {
	cfg := testConfig()
	cfg.PDFCompress = false
	s := newTestServer(t, cfg)

	w := doRequest(s, http.MethodPost, "/", testToken, `{"type":"pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "(Solace Export)Tj")
}

func TestHealth(t *testing.T) {
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	s := newTestServer(t, testConfig(), WithVersion("1.2.3"), WithClock(func() time.Time { return fixed }))

	w := doRequest(s, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"status":    "healthy",
		"timestamp": "2024-05-06T07:08:09Z",
		"version":   "1.2.3",
	}, body)
}

func TestExport_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	ms, err := otel.NewMeterSetupWithReader(context.Background(), reader)
	require.NoError(t, err)
	s := newTestServer(t, testConfig(), WithRecorder(ms.Recorder()))

	doRequest(s, http.MethodPost, "/", testToken, `{"type":"csv","content":"x"}`)
	doRequest(s, http.MethodPost, "/", testToken, `{"type":"xml"}`)
	doRequest(s, http.MethodPost, "/", "", `{"type":"csv"}`)
	doRequest(s, http.MethodGet, "/health", "", "")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := make(map[attribute.Set]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "export.request.count" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				counts[dp.Attributes] = dp.Value
			}
		}
	}

	attrs := func(format, status string) attribute.Set {
		return attribute.NewSet(otel.AttrExportFormat.String(format), otel.AttrExportStatus.String(status))
	}
	assert.Len(t, counts, 3, "health checks are not counted")
	assert.Equal(t, int64(1), counts[attrs("csv", otel.StatusSuccess)])
	assert.Equal(t, int64(1), counts[attrs(otel.FormatUnknown, otel.StatusUnsupportedType)])
	assert.Equal(t, int64(1), counts[attrs(otel.FormatUnknown, otel.StatusUnauthorized)])
}

func TestServeAndStop(t *testing.T) {
	s := newTestServer(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NoError(t, <-done)
}
