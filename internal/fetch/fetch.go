package fetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"menuscope/internal/embedded"
	"menuscope/internal/fileutil"
	"menuscope/internal/logging"
	"menuscope/internal/services"
	"menuscope/internal/textutil"
)

// Placeholder is replaced by the restaurant slug in URL templates.
const Placeholder = "{restaurant-name}"

const maxPageBytes = 16 << 20

// Result records the outcome of one page download.
type Result struct {
	Name       string
	URL        string
	Status     int
	Path       string
	Title      string
	HasPayload bool
	Bytes      int
	Elapsed    time.Duration
	Err        error
}

// OK reports whether the page was saved.
func (r Result) OK() bool { return r.Err == nil }

// Fetcher downloads restaurant order pages into OutputDir.
type Fetcher struct {
	Client      *http.Client
	URLTemplate string
	UserAgent   string
	OutputDir   string
	Concurrency int
	Logger      *slog.Logger
}

// ReadNames parses a names file: one slug per line, blank lines and lines
// starting with # are ignored, repeated slugs are kept once.
func ReadNames(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	var names []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return names, nil
}

// LoadNames reads the names file at path.
func LoadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "open names file", path, err)
	}
	defer f.Close()
	return ReadNames(f)
}

// PageURL substitutes the path-escaped slug into template.
func PageURL(template, name string) (string, error) {
	if !strings.Contains(template, Placeholder) {
		return "", services.Wrap(services.ErrConfiguration, "fetch", "build url", "template lacks "+Placeholder, nil)
	}
	raw := strings.ReplaceAll(template, Placeholder, url.PathEscape(strings.TrimSpace(name)))
	if _, err := url.Parse(raw); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "fetch", "build url", raw, err)
	}
	return raw, nil
}

// FetchAll downloads every page with bounded concurrency. Results follow the
// order of names; a failed page never stops the others.
func (f *Fetcher) FetchAll(ctx context.Context, names []string) []Result {
	results := make([]Result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if f.Concurrency > 0 {
		g.SetLimit(f.Concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			results[i] = f.Fetch(gctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Fetch downloads a single page and writes <OutputDir>/<name>.html on HTTP 200.
func (f *Fetcher) Fetch(ctx context.Context, name string) Result {
	start := time.Now()
	ctx = services.WithStage(services.WithSubject(ctx, name), "fetch")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(f.Logger, "fetch"))

	result := Result{Name: name}
	pageURL, err := PageURL(f.URLTemplate, name)
	if err != nil {
		result.Err = err
		return result
	}
	result.URL = pageURL

	body, status, err := f.get(ctx, pageURL)
	result.Status = status
	result.Elapsed = time.Since(start)
	if err != nil {
		result.Err = err
		logging.WarnWithContext(logger, "page download failed", "fetch_failed",
			logging.String("url", pageURL),
			logging.Int("status", status),
			logging.Error(err),
			logging.String(logging.FieldImpact, "restaurant skipped"),
			logging.String(logging.FieldErrorHint, "check the slug in the names file"),
		)
		return result
	}

	result.Bytes = len(body)
	result.Title = PageTitle(body)
	_, result.HasPayload = embedded.Find(string(body))
	result.Path = filepath.Join(f.OutputDir, textutil.SanitizeFileName(name)+".html")
	if err := fileutil.WriteFileAtomic(result.Path, body); err != nil {
		result.Err = services.Wrap(services.ErrTransient, "fetch", "write page", result.Path, err)
		logging.ErrorWithContext(logger, "page write failed", "fetch_write_failed", logging.Error(err))
		return result
	}

	if !result.HasPayload {
		logging.WarnWithContext(logger, "page saved without embedded catalog", "payload_missing",
			logging.String("title", result.Title),
			logging.String(logging.FieldImpact, "extract will skip this page"),
			logging.String(logging.FieldErrorHint, "the site may have served a bot challenge; retry later"),
		)
	}
	logger.Info("page saved",
		logging.String(logging.FieldEventType, "page_saved"),
		logging.String("title", result.Title),
		logging.Int("page_bytes", result.Bytes),
		logging.Bool("payload", result.HasPayload),
		logging.Duration("elapsed", result.Elapsed),
		logging.String("html_path", result.Path),
	)
	return result
}

func (f *Fetcher) get(ctx context.Context, pageURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrConfiguration, "fetch", "new request", pageURL, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "fetch", "http get", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return nil, resp.StatusCode, services.Wrap(marker, "fetch", "http get", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return nil, resp.StatusCode, services.Wrap(services.ErrTransient, "fetch", "read body", pageURL, err)
	}
	if len(body) > maxPageBytes {
		return nil, resp.StatusCode, services.Wrap(services.ErrDecode, "fetch", "read body", "page exceeds size limit", nil)
	}
	return body, resp.StatusCode, nil
}

// PageTitle returns the trimmed text of the first <title> element.
func PageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
