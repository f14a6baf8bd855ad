// Package feed fetches the globe's input documents (topology, populated
// places and plot records) from local files or http(s) URLs.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/litescript/ls-globe/internal/logging"
	"github.com/litescript/ls-globe/internal/version"
)

const (
	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps a single document.
	DefaultMaxBytes = 64 << 20
)

// ErrEmptySource is returned for a blank source or a document with no
// content.
var ErrEmptySource = errors.New("empty feed source")

// Fetcher reads documents from paths or URLs.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	log      *logging.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxBytes caps the size of a fetched document.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(l *logging.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = l
	}
}

// NewFetcher creates a new document fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		timeout:  DefaultTimeout,
		maxBytes: DefaultMaxBytes,
		log:      logging.Discard(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// IsRemote reports whether source names an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch returns the raw bytes of source: an http(s) URL, a file:// URL or a
// filesystem path.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmptySource
	}

	start := time.Now()
	var (
		data []byte
		err  error
	)
	if IsRemote(source) {
		data, err = f.fetchHTTP(ctx, source)
	} else {
		data, err = f.fetchFile(ctx, strings.TrimPrefix(source, "file://"))
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptySource)
	}

	f.log.Debug("fetched %s (%d bytes in %v)", source, len(data), time.Since(start).Round(time.Millisecond))
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent)
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status code: %d", url, resp.StatusCode)
	}

	return f.readAll(resp.Body)
}

func (f *Fetcher) fetchFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return f.readAll(file)
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", f.maxBytes)
	}
	return body, nil
}
