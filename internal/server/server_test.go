package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	xbmp "golang.org/x/image/bmp"

	"github.com/anas-shakeel/bmp-parser/internal/config"
)

func writeBitmap(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x80, 0xff})
		}
	}
	var buf bytes.Buffer
	if err := xbmp.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "image.bmp")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestServer(t *testing.T, imagePath string, compress bool) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Image = imagePath
	cfg.StaticDir = t.TempDir()
	cfg.Gzip = compress
	if err := os.WriteFile(filepath.Join(cfg.StaticDir, "index.html"), []byte("<h1>bmp</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetBitmap(t *testing.T) {
	path := writeBitmap(t, t.TempDir(), 2, 2)
	s := newTestServer(t, path, false)

	rec := get(t, s.Handler(), "/api/bmp", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var got struct {
		FileIdentifier string `json:"file_identifier"`
		Width          int    `json:"image_width"`
		Height         int    `json:"image_height"`
		Pixels         []int  `json:"pixel_arr_flat"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.FileIdentifier != "BM" || got.Width != 2 || got.Height != 2 {
		t.Errorf("got %+v", got)
	}
	want := []int{
		0, 0, 0x80, 0xff, 1, 0, 0x80, 0xff,
		0, 1, 0x80, 0xff, 1, 1, 0x80, 0xff,
	}
	if d := cmp.Diff(want, got.Pixels); d != "" {
		t.Errorf("pixels (-want +got):\n%s", d)
	}
}

func TestGetBitmapGzip(t *testing.T) {
	path := writeBitmap(t, t.TempDir(), 32, 32)
	s := newTestServer(t, path, true)

	rec := get(t, s.Handler(), "/api/bmp", http.Header{"Accept-Encoding": {"gzip"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if enc := rec.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("content encoding = %q", enc)
	}

	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Pixels []int `json:"pixel_arr_flat"`
	}
	if err := json.NewDecoder(zr).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Pixels) != 32*32*4 {
		t.Errorf("len(pixels) = %d", len(got.Pixels))
	}
}

func TestGetBitmapErrors(t *testing.T) {
	dir := t.TempDir()
	notBMP := filepath.Join(dir, "not.bmp")
	if err := os.WriteFile(notBMP, bytes.Repeat([]byte("x"), 64), 0o644); err != nil {
		t.Fatal(err)
	}
	short := filepath.Join(dir, "short.bmp")
	if err := os.WriteFile(short, []byte("BM\x00\x00"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path   string
		status int
	}{
		{filepath.Join(dir, "missing.bmp"), http.StatusNotFound},
		{notBMP, http.StatusUnprocessableEntity},
		{short, http.StatusUnprocessableEntity},
		{dir, http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := get(t, newTestServer(t, c.path, false).Handler(), "/api/bmp", nil)
		if rec.Code != c.status {
			t.Errorf("%s: status = %d, want %d", c.path, rec.Code, c.status)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Errorf("%s: body = %s", c.path, rec.Body)
		}
	}
}

func TestGetBitmapPrefix(t *testing.T) {
	path := writeBitmap(t, t.TempDir(), 1, 1)
	for prefix, route := range map[string]string{"/": "/bmp", "/v1/": "/v1/bmp"} {
		s := newTestServer(t, path, false)
		s.cfg.APIPrefix = prefix
		if err := s.cfg.Validate(); err != nil {
			t.Fatal(err)
		}
		s = New(s.cfg, s.logger)

		if rec := get(t, s.Handler(), route, nil); rec.Code != http.StatusOK {
			t.Errorf("prefix %q: GET %s status = %d", prefix, route, rec.Code)
		}
	}
}

func TestStaticFiles(t *testing.T) {
	s := newTestServer(t, "unused.bmp", false)

	rec := get(t, s.Handler(), "/", nil)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("<h1>bmp</h1>")) {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = get(t, s.Handler(), "/missing.txt", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing static file: status = %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, "unused.bmp", false)
	req := httptest.NewRequest(http.MethodPost, "/api/bmp", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	s := newTestServer(t, writeBitmap(t, t.TempDir(), 1, 1), false)
	s.cfg.Addr = addr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	var resp *http.Response
	for range 50 {
		resp, err = http.Get("http://" + addr + "/api/bmp")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
