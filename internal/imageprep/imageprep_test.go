package imageprep

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"menuscope/internal/services"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestPrepareBytesDownsizesKeepingAspect(t *testing.T) {
	out, err := New(nil).PrepareBytes(encodePNG(t, 1600, 1000))
	if err != nil {
		t.Fatalf("PrepareBytes: %v", err)
	}
	w, h := decodedSize(t, out)
	if w != 800 || h != 500 {
		t.Fatalf("expected 800x500, got %dx%d", w, h)
	}
}

func TestPrepareBytesNeverUpscales(t *testing.T) {
	out, err := New(nil).PrepareBytes(encodePNG(t, 120, 90))
	if err != nil {
		t.Fatalf("PrepareBytes: %v", err)
	}
	w, h := decodedSize(t, out)
	if w != 120 || h != 90 {
		t.Fatalf("expected 120x90, got %dx%d", w, h)
	}
}

func TestPrepareBytesRejectsGarbage(t *testing.T) {
	_, err := New(nil).PrepareBytes([]byte("not an image"))
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestPrepareDownloads(t *testing.T) {
	payload := encodePNG(t, 900, 1800)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "menuscope-test" {
			http.Error(w, "missing user agent", http.StatusForbidden)
			return
		}
		if r.URL.Path != "/dish.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	p := New(srv.Client())
	p.UserAgent = "menuscope-test"
	out, err := p.Prepare(context.Background(), srv.URL+"/dish.png")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if w, h := decodedSize(t, out); w != 400 || h != 800 {
		t.Fatalf("expected 400x800, got %dx%d", w, h)
	}

	_, err = p.Prepare(context.Background(), srv.URL+"/missing.png")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for 404, got %v", err)
	}
}

func TestPrepareReadsLocalFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dish.png")
	if err := os.WriteFile(path, encodePNG(t, 64, 64), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	p := New(nil)
	for _, ref := range []string{path, "file://" + path} {
		if _, err := p.Prepare(context.Background(), ref); err != nil {
			t.Fatalf("Prepare(%q): %v", ref, err)
		}
	}
	if _, err := p.Prepare(context.Background(), filepath.Join(dir, "absent.png")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := p.Prepare(context.Background(), "  "); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty ref, got %v", err)
	}
}
