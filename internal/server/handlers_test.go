package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/image-collage/internal/config"
	"github.com/ironsheep/image-collage/internal/transform"
)

type upload struct {
	field string
	data  []byte
}

func newTestServer(t *testing.T, outputFolder string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.OutputFolder = outputFolder
	cfg.MaxUploadBytes = 1 << 20

	s := New(cfg, transform.New(transform.Options{Workers: 2}), nil)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func solidPNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func buildMultipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.field+".png")
		if err != nil {
			t.Fatalf("failed to create multipart part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("failed to write payload: %v", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func defaultFields() map[string]string {
	return map[string]string{
		fieldKernelSize:          "3",
		fieldSegmentSize:         "50",
		fieldBrightnessThreshold: "127",
	}
}

func doProcess(t *testing.T, s *Server, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := buildMultipartBody(t, fields, files...)

	req := httptest.NewRequest(http.MethodPost, "/process", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)
	return resp
}

func decodeDetail(t *testing.T, resp *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var payload struct {
		Detail string `json:"detail"`
		Kind   string `json:"kind"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode error body %q: %v", resp.Body.String(), err)
	}
	return payload.Detail, payload.Kind
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.Code)
	}
	if strings.TrimSpace(resp.Body.String()) != `{"status":"healthy"}` {
		t.Errorf("body: got %s", resp.Body.String())
	}
}

func TestProcess_BlackAndWhiteCollage(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)

	resp := doProcess(t, s, defaultFields(),
		upload{fieldImage1, solidPNG(t, 100, 100, color.Black)},
		upload{fieldImage2, solidPNG(t, 100, 100, color.White)},
	)

	if resp.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Content-Type: got %s", ct)
	}
	if resp.Header().Get(HeaderRequestID) == "" {
		t.Error("missing request id header")
	}
	if got := resp.Header().Get(HeaderMarkedSegments); got != "0,4" {
		t.Errorf("marked segments: got %s, want 0,4", got)
	}

	out, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("response is not a PNG: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("collage size: got %dx%d, want 200x100", b.Dx(), b.Dy())
	}

	red := color.NRGBA{255, 0, 0, 255}
	for _, pt := range []image.Point{{0, 0}, {49, 49}, {99, 99}} {
		if got := color.NRGBAModel.Convert(out.At(pt.X, pt.Y)); got == red {
			t.Errorf("left half %v should not be framed", pt)
		}
	}
	for _, pt := range []image.Point{{100, 0}, {149, 49}, {150, 50}, {199, 99}} {
		if got := color.NRGBAModel.Convert(out.At(pt.X, pt.Y)); got != red {
			t.Errorf("right half %v: got %v, want frame", pt, got)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read output folder: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "final_collage_20260102_030405_") {
		t.Errorf("persisted files: got %v", entries)
	}
}

func TestProcess_NoPersistence(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, "")

	resp := doProcess(t, s, defaultFields(),
		upload{fieldImage1, solidPNG(t, 30, 20, color.Black)},
		upload{fieldImage2, solidPNG(t, 20, 30, color.White)},
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.Code)
	}

	out, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("response is not a PNG: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("collage size: got %dx%d, want 40x20", b.Dx(), b.Dy())
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("expected no files, got %d", len(entries))
	}
}

func TestProcess_NonImageUpload(t *testing.T) {
	s := newTestServer(t, "")

	resp := doProcess(t, s, defaultFields(),
		upload{fieldImage1, solidPNG(t, 10, 10, color.White)},
		upload{fieldImage2, []byte("fastapi\nuvicorn\n")},
	)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.Code)
	}
	detail, kind := decodeDetail(t, resp)
	if detail != "Files must be of type image." || kind != "decode" {
		t.Errorf("body: got detail=%q kind=%q", detail, kind)
	}
}

func TestProcess_InvalidParameters(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
		drop     string
		wantKind string
	}{
		{"even kernel", map[string]string{fieldKernelSize: "4"}, "", "validation"},
		{"zero kernel", map[string]string{fieldKernelSize: "0"}, "", "validation"},
		{"negative segment", map[string]string{fieldSegmentSize: "-10"}, "", "validation"},
		{"threshold too high", map[string]string{fieldBrightnessThreshold: "300"}, "", "validation"},
		{"non-numeric kernel", map[string]string{fieldKernelSize: "three"}, "", "input"},
		{"non-numeric threshold", map[string]string{fieldBrightnessThreshold: "bright"}, "", "input"},
		{"missing segment size", nil, fieldSegmentSize, "input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s := newTestServer(t, dir)

			fields := defaultFields()
			for k, v := range tt.override {
				fields[k] = v
			}
			if tt.drop != "" {
				delete(fields, tt.drop)
			}

			resp := doProcess(t, s, fields,
				upload{fieldImage1, solidPNG(t, 10, 10, color.White)},
				upload{fieldImage2, solidPNG(t, 10, 10, color.Black)},
			)

			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status: got %d, want 422 (body %s)", resp.Code, resp.Body.String())
			}
			if _, kind := decodeDetail(t, resp); kind != tt.wantKind {
				t.Errorf("kind: got %s, want %s", kind, tt.wantKind)
			}
			if entries, _ := os.ReadDir(dir); len(entries) != 0 {
				t.Errorf("nothing should be persisted on failure, got %d files", len(entries))
			}
		})
	}
}

func TestProcess_MissingFile(t *testing.T) {
	s := newTestServer(t, "")

	resp := doProcess(t, s, defaultFields(), upload{fieldImage1, solidPNG(t, 10, 10, color.White)})

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", resp.Code)
	}
	if detail, _ := decodeDetail(t, resp); !strings.Contains(detail, fieldImage2) {
		t.Errorf("detail should name the missing field, got %q", detail)
	}
}

func TestProcess_TooLarge(t *testing.T) {
	s := newTestServer(t, "")
	big := bytes.Repeat([]byte("a"), int(s.cfg.MaxUploadBytes)+1)

	resp := doProcess(t, s, defaultFields(),
		upload{fieldImage1, big},
		upload{fieldImage2, solidPNG(t, 10, 10, color.Black)},
	)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", resp.Code)
	}
}

func TestProcess_TooLargeChunked(t *testing.T) {
	s := newTestServer(t, "")
	big := bytes.Repeat([]byte("a"), int(s.cfg.MaxUploadBytes)+1)
	body, contentType := buildMultipartBody(t, defaultFields(),
		upload{fieldImage1, big},
		upload{fieldImage2, solidPNG(t, 10, 10, color.Black)},
	)

	// A plain io.Reader leaves ContentLength unknown, as with chunked encoding.
	req := httptest.NewRequest(http.MethodPost, "/process", io.MultiReader(body))
	req.Header.Set("Content-Type", contentType)
	if req.ContentLength > 0 {
		t.Fatalf("setup: ContentLength should be unknown, got %d", req.ContentLength)
	}

	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413 (body %s)", resp.Code, resp.Body.String())
	}
}

func TestProcess_NotMultipart(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("kernel_size=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", resp.Code)
	}
	if _, kind := decodeDetail(t, resp); kind != "input" {
		t.Errorf("kind: got %s, want input", kind)
	}
}

func TestProcess_LogsUploadInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	cfg := config.Default()
	cfg.OutputFolder = ""
	s := New(cfg, transform.New(transform.Options{Workers: 2}), zap.New(core))

	resp := doProcess(t, s, defaultFields(),
		upload{fieldImage1, solidPNG(t, 12, 8, color.White)},
		upload{fieldImage2, solidPNG(t, 8, 12, color.Black)},
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.Code)
	}

	entries := logs.FilterMessage("uploads decoded").All()
	if len(entries) != 1 {
		t.Fatalf("uploads decoded entries: got %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	first, ok := fields[fieldImage1].(map[string]interface{})
	if !ok {
		t.Fatalf("%s field: got %T", fieldImage1, fields[fieldImage1])
	}
	if first["format"] != "png" || first["width"] != 12 || first["height"] != 8 {
		t.Errorf("%s info: got %v", fieldImage1, first)
	}
	if _, ok := first["has_alpha"]; !ok {
		t.Error("has_alpha missing from upload info")
	}
}

func TestProcess_PersistenceFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	s := newTestServer(t, filepath.Join(file, "results"))

	resp := doProcess(t, s, defaultFields(),
		upload{fieldImage1, solidPNG(t, 10, 10, color.White)},
		upload{fieldImage2, solidPNG(t, 10, 10, color.Black)},
	)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", resp.Code)
	}
	detail, kind := decodeDetail(t, resp)
	if !strings.HasPrefix(detail, "Error processing images:") || kind != "processing" {
		t.Errorf("body: got detail=%q kind=%q", detail, kind)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(&http.MaxBytesError{Limit: 1}); got != http.StatusRequestEntityTooLarge {
		t.Errorf("MaxBytesError: got %d, want 413", got)
	}
	if got := statusFor(inputError("x")); got != http.StatusUnprocessableEntity {
		t.Errorf("input: got %d, want 422", got)
	}
	if got := statusFor(os.ErrClosed); got != http.StatusInternalServerError {
		t.Errorf("unknown: got %d, want 500", got)
	}
}
