package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// maxDatasetBytes bounds a single dataset download.
const maxDatasetBytes = 64 << 20

// ErrStorageNotConfigured is returned for s3:// URLs when no object store is set up.
var ErrStorageNotConfigured = errors.New("object storage not configured")

// ObjectStore opens objects in S3-compatible storage.
type ObjectStore interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Fetcher retrieves raw dataset text by URL. Successful fetches are kept in a
// process-wide, insert-only cache keyed by URL.
type Fetcher struct {
	httpClient *http.Client
	store      ObjectStore
	cache      *cache.Cache
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. store may be nil, in which case s3:// URLs fail.
func NewFetcher(timeout, ttl time.Duration, store ObjectStore, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store:  store,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Fetch returns the text at rawURL. Supported schemes are http, https, s3
// (s3://bucket/key) and file; a bare path is read from the local filesystem.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if cached, found := f.cache.Get(rawURL); found {
		if text, ok := cached.(string); ok {
			return text, nil
		}
	}

	text, err := f.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	// Add keeps the first stored value when concurrent fetches race.
	if err := f.cache.Add(rawURL, text, cache.DefaultExpiration); err != nil {
		f.logger.Debug("dataset already cached", "url", rawURL)
	}
	return text, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse dataset url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, rawURL)
	case "s3":
		return f.fetchObject(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "file":
		return readFile(u.Path)
	case "":
		return readFile(rawURL)
	default:
		return "", fmt.Errorf("unsupported dataset url scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("dataset request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("dataset request: status %d", resp.StatusCode)
	}
	return readAll(resp.Body)
}

func (f *Fetcher) fetchObject(ctx context.Context, bucket, key string) (string, error) {
	if f.store == nil {
		return "", ErrStorageNotConfigured
	}
	if bucket == "" || key == "" {
		return "", errors.New("s3 url must be s3://bucket/key")
	}
	obj, err := f.store.Open(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	defer obj.Close()
	return readAll(obj)
}

func readFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open dataset file: %w", err)
	}
	defer file.Close()
	return readAll(file)
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDatasetBytes+1))
	if err != nil {
		return "", fmt.Errorf("read dataset: %w", err)
	}
	if len(data) > maxDatasetBytes {
		return "", fmt.Errorf("dataset exceeds %d bytes", maxDatasetBytes)
	}
	return string(data), nil
}
