// Package evidence fingerprints the documents supporting an emissions record,
// such as utility bills, wherever they are stored.
package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Hasher returns the lowercase hex SHA-256 of a document addressed by url.
type Hasher struct {
	http *http.Client
	gcs  *storage.Client
	s3   *s3.Client
}

type Option func(*Hasher)

func WithHTTPClient(client *http.Client) Option {
	return func(h *Hasher) {
		h.http = client
	}
}

// WithGCSClient enables gs://bucket/object urls.
func WithGCSClient(client *storage.Client) Option {
	return func(h *Hasher) {
		h.gcs = client
	}
}

// WithS3Client enables s3://bucket/key urls.
func WithS3Client(client *s3.Client) Option {
	return func(h *Hasher) {
		h.s3 = client
	}
}

func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hasher) Hash(ctx context.Context, rawURL string) (string, error) {
	body, err := h.open(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	digest := sha256.New()
	n, err := io.Copy(digest, body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rawURL, err)
	}

	sum := hex.EncodeToString(digest.Sum(nil))
	slog.Debug("evidence hashed", "url", rawURL, "bytes", n, "sha256", sum)
	return sum, nil
}

func (h *Hasher) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: evidence url %q: %s", carbonaccounting.ErrInvalidArgument, rawURL, err.Error())
	}

	switch u.Scheme {
	case "", "file":
		path := u.Path
		if u.Scheme == "" {
			path = rawURL
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open evidence: %w", err)
		}
		return f, nil

	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: evidence url %q: %s", carbonaccounting.ErrInvalidArgument, rawURL, err.Error())
		}
		resp, err := h.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch evidence: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch evidence %s: unexpected status %s", rawURL, resp.Status)
		}
		return resp.Body, nil

	case "gs":
		if h.gcs == nil {
			return nil, fmt.Errorf("%w: no cloud storage client configured for %s", carbonaccounting.ErrInvalidArgument, rawURL)
		}
		r, err := h.gcs.Bucket(u.Host).Object(objectName(u)).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read evidence object %s: %w", rawURL, err)
		}
		return r, nil

	case "s3":
		if h.s3 == nil {
			return nil, fmt.Errorf("%w: no s3 client configured for %s", carbonaccounting.ErrInvalidArgument, rawURL)
		}
		output, err := h.s3.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(u.Host),
			Key:    aws.String(objectName(u)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get evidence object %s: %w", rawURL, err)
		}
		return output.Body, nil
	}

	return nil, fmt.Errorf("%w: unsupported evidence scheme %q", carbonaccounting.ErrInvalidArgument, u.Scheme)
}

func objectName(u *url.URL) string {
	return strings.TrimPrefix(u.Path, "/")
}
