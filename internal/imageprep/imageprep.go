// Package imageprep fetches dish photos and normalizes them into the small
// JPEG every estimator receives.
package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"menuscope/internal/services"
)

const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 800
	DefaultQuality   = 85

	maxImageBytes = 32 << 20
)

// Preparer downsizes images so neither side exceeds the configured bound and
// re-encodes them as JPEG. Images already inside the bound keep their size.
type Preparer struct {
	Client    *http.Client
	UserAgent string
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// New returns a Preparer with the default 800x800 bound and quality 85.
func New(client *http.Client) *Preparer {
	return &Preparer{
		Client:    client,
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultQuality,
	}
}

// Prepare loads ref, which is an http(s) URL, a file:// URL or a local path,
// and returns the normalized JPEG bytes.
func (p *Preparer) Prepare(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, services.Wrap(services.ErrNotFound, "imageprep", "load", "empty image reference", nil)
	}
	raw, err := p.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return p.PrepareBytes(raw)
}

// PrepareBytes decodes raw, applies EXIF orientation, fits it inside the
// bound with Lanczos resampling and encodes JPEG.
func (p *Preparer) PrepareBytes(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "imageprep", "decode", "unsupported or corrupt image", err)
	}
	img = p.fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality())); err != nil {
		return nil, services.Wrap(services.ErrDecode, "imageprep", "encode", "jpeg encode failed", err)
	}
	return buf.Bytes(), nil
}

func (p *Preparer) fit(img image.Image) image.Image {
	width, height := p.bounds()
	b := img.Bounds()
	if b.Dx() <= width && b.Dy() <= height {
		return img
	}
	return imaging.Fit(img, width, height, imaging.Lanczos)
}

func (p *Preparer) bounds() (int, int) {
	width, height := p.MaxWidth, p.MaxHeight
	if width <= 0 {
		width = DefaultMaxWidth
	}
	if height <= 0 {
		height = DefaultMaxHeight
	}
	return width, height
}

func (p *Preparer) quality() int {
	if p.Quality <= 0 || p.Quality > 100 {
		return DefaultQuality
	}
	return p.Quality
}

func (p *Preparer) load(ctx context.Context, ref string) ([]byte, error) {
	parsed, err := url.Parse(ref)
	if err == nil {
		switch strings.ToLower(parsed.Scheme) {
		case "http", "https":
			return p.download(ctx, ref)
		case "file":
			return readLocal(parsed.Path)
		}
	}
	return readLocal(ref)
}

func (p *Preparer) download(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "imageprep", "build request", ref, err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "imageprep", "download", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "imageprep", "download", fmt.Sprintf("%s returned %d", ref, resp.StatusCode), nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrTransient, "imageprep", "download", fmt.Sprintf("%s returned %d", ref, resp.StatusCode), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "imageprep", "download", "read body", err)
	}
	if len(body) > maxImageBytes {
		return nil, services.Wrap(services.ErrDecode, "imageprep", "download", fmt.Sprintf("image exceeds %d bytes", maxImageBytes), nil)
	}
	return body, nil
}

func readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "imageprep", "read", path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "imageprep", "read", path, err)
	}
	return data, nil
}
