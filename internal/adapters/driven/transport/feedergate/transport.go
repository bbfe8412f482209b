// Package feedergate delivers feed documents to the appliance's feeder gate
// over HTTP.
//
// Metadata-and-url feeds are posted to /xmlfeed and group definitions to
// /xmlgroups, both as multipart/form-data. The appliance answers a good
// submission with the body "Success".
package feedergate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// Verify interface compliance.
var _ driven.FeedTransport = (*Transport)(nil)

const (
	feedPath   = "/xmlfeed"
	groupsPath = "/xmlgroups"

	// successBody is the complete response body of an accepted feed.
	successBody = "Success"

	// maxResponseBytes bounds how much of a response is read.
	maxResponseBytes = 64 << 10
)

// StatusError is returned when the feeder gate answers with an HTTP error.
type StatusError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feedergate: HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// RejectedError is returned when the feeder gate answers 200 with a body
// other than "Success".
type RejectedError struct {
	Body string
	URL  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("feedergate: feed rejected by %s: %q", e.URL, e.Body)
}

// Transport posts feeds to a feeder gate.
type Transport struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithRateLimit limits submissions to perSecond. Zero or less removes the limit.
func WithRateLimit(perSecond float64) Option {
	return func(t *Transport) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// New creates a transport for the feeder gate at baseURL,
// e.g. "http://gsa.example.com:19900".
func New(baseURL string, opts ...Option) *Transport {
	t := &Transport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: domain.DefaultFeedConfig().GSATimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromConfig creates a transport from the gsa.* configuration keys.
func NewFromConfig(cfg domain.FeedConfig, opts ...Option) *Transport {
	base := "http://" + net.JoinHostPort(cfg.GSAHostname, strconv.Itoa(cfg.GSAPort))
	all := append([]Option{
		WithHTTPClient(&http.Client{Timeout: timeoutFor(cfg)}),
		WithRateLimit(cfg.GSAMaxSendsPerSecond),
	}, opts...)
	return New(base, all...)
}

// BaseURL returns the feeder gate address.
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// SendMetadataAndURL submits a metadata-and-url feed for datasource.
func (t *Transport) SendMetadataAndURL(ctx context.Context, datasource, xml string, useCompression bool) error {
	fields := [][2]string{
		{"datasource", datasource},
		{"feedtype", string(domain.FeedTypeMetadataAndURL)},
	}
	return t.send(ctx, feedPath, fields, xml, useCompression)
}

// SendGroups submits a group definitions feed for groupsource.
func (t *Transport) SendGroups(ctx context.Context, groupsource, xml string, useCompression bool) error {
	fields := [][2]string{
		{"groupsource", groupsource},
	}
	return t.send(ctx, groupsPath, fields, xml, useCompression)
}

func (t *Transport) send(ctx context.Context, path string, fields [][2]string, xml string, useCompression bool) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	body, contentType, err := encodeForm(fields, xml)
	if err != nil {
		return domain.Fatal(fmt.Errorf("encode feed form: %w", err))
	}
	if useCompression {
		body, err = compress(body)
		if err != nil {
			return domain.Fatal(fmt.Errorf("compress feed: %w", err))
		}
	}

	url := t.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Fatal(fmt.Errorf("%w: %w", domain.ErrTransport, err))
	}
	req.Header.Set("Content-Type", contentType)
	if useCompression {
		req.Header.Set("Content-Encoding", "gzip")
	}

	logger.Debug("feedergate: POST %s (%d bytes, compressed=%t)", url, len(body), useCompression)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}
	reply := strings.TrimSpace(string(raw))

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: reply, URL: url}
		if isPermanent(resp.StatusCode) {
			return domain.Fatal(fmt.Errorf("%w: %w", domain.ErrTransport, statusErr))
		}
		return fmt.Errorf("%w: %w", domain.ErrTransport, statusErr)
	}
	if reply != successBody {
		return fmt.Errorf("%w: %w", domain.ErrTransport, &RejectedError{Body: reply, URL: url})
	}
	return nil
}

// isPermanent reports whether resending the same feed cannot succeed.
// Rate limiting and timeouts are retried.
func isPermanent(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}

func encodeForm(fields [][2]string, xml string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("data", "xml")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, xml); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsRejected reports whether err is a feed the appliance refused.
func IsRejected(err error) bool {
	var rej *RejectedError
	var status *StatusError
	return errors.As(err, &rej) || errors.As(err, &status)
}

func timeoutFor(cfg domain.FeedConfig) time.Duration {
	if cfg.GSATimeout <= 0 {
		return domain.DefaultFeedConfig().GSATimeout
	}
	return cfg.GSATimeout
}
