package feedergate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

// received is what the fake feeder gate saw in one request.
type received struct {
	path            string
	contentEncoding string
	fields          map[string]string
	data            string
}

type fakeGate struct {
	mu       sync.Mutex
	requests []received
	status   int
	reply    string
}

func newFakeGate(t *testing.T) (*fakeGate, *httptest.Server) {
	t.Helper()
	g := &fakeGate{status: http.StatusOK, reply: "Success"}
	srv := httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(srv.Close)
	return g, srv
}

func (g *fakeGate) serve(w http.ResponseWriter, r *http.Request) {
	rec := received{path: r.URL.Path, contentEncoding: r.Header.Get("Content-Encoding"), fields: map[string]string{}}
	if rec.contentEncoding == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(zr)
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for k, v := range r.MultipartForm.Value {
		rec.fields[k] = v[0]
	}
	if f, _, err := r.FormFile("data"); err == nil {
		b, _ := io.ReadAll(f)
		rec.data = string(b)
		f.Close()
	}

	g.mu.Lock()
	g.requests = append(g.requests, rec)
	status, reply := g.status, g.reply
	g.mu.Unlock()

	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (g *fakeGate) last(t *testing.T) received {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.requests)
	return g.requests[len(g.requests)-1]
}

func TestSendMetadataAndURL(t *testing.T) {
	gate, srv := newFakeGate(t)
	tr := New(srv.URL)

	err := tr.SendMetadataAndURL(context.Background(), "docs", "<gsafeed/>", false)
	require.NoError(t, err)

	got := gate.last(t)
	assert.Equal(t, "/xmlfeed", got.path)
	assert.Equal(t, "docs", got.fields["datasource"])
	assert.Equal(t, "metadata-and-url", got.fields["feedtype"])
	assert.Equal(t, "<gsafeed/>", got.data)
	assert.Empty(t, got.contentEncoding)
}

func TestSendGroups(t *testing.T) {
	gate, srv := newFakeGate(t)
	tr := New(srv.URL + "/")

	err := tr.SendGroups(context.Background(), "adaptor", "<xmlgroups/>", false)
	require.NoError(t, err)

	got := gate.last(t)
	assert.Equal(t, "/xmlgroups", got.path)
	assert.Equal(t, "adaptor", got.fields["groupsource"])
	assert.NotContains(t, got.fields, "feedtype")
	assert.Equal(t, "<xmlgroups/>", got.data)
}

func TestSendCompressed(t *testing.T) {
	gate, srv := newFakeGate(t)
	tr := New(srv.URL)

	err := tr.SendMetadataAndURL(context.Background(), "docs", "<gsafeed>compressed</gsafeed>", true)
	require.NoError(t, err)

	got := gate.last(t)
	assert.Equal(t, "gzip", got.contentEncoding)
	assert.Equal(t, "<gsafeed>compressed</gsafeed>", got.data)
}

func TestSendRejectedBodyIsRecoverable(t *testing.T) {
	gate, srv := newFakeGate(t)
	gate.reply = "Error - Unauthorized Request"
	tr := New(srv.URL)

	err := tr.SendMetadataAndURL(context.Background(), "docs", "<gsafeed/>", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.False(t, domain.IsFatal(err))
	assert.True(t, IsRejected(err))

	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "Error - Unauthorized Request", rej.Body)
}

func TestSendHTTPStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		fatal  bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, false},
		{http.StatusRequestTimeout, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			gate, srv := newFakeGate(t)
			gate.status = tt.status
			gate.reply = "nope"
			tr := New(srv.URL)

			err := tr.SendMetadataAndURL(context.Background(), "docs", "<gsafeed/>", false)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrTransport)
			assert.Equal(t, tt.fatal, domain.IsFatal(err))

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
		})
	}
}

func TestSendConnectionRefusedIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	tr := New(addr)
	err := tr.SendMetadataAndURL(context.Background(), "docs", "<gsafeed/>", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.False(t, domain.IsFatal(err))
}

func TestSendCancelledContext(t *testing.T) {
	_, srv := newFakeGate(t)
	tr := New(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.SendMetadataAndURL(ctx, "docs", "<gsafeed/>", false)
	require.Error(t, err)
	assert.True(t, domain.IsCancellation(err))
}

func TestSendRateLimited(t *testing.T) {
	gate, srv := newFakeGate(t)
	tr := New(srv.URL, WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, tr.SendMetadataAndURL(context.Background(), "docs", "<gsafeed/>", false))
	}
	// Burst of one: the second and third sends each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	gate.mu.Lock()
	defer gate.mu.Unlock()
	assert.Len(t, gate.requests, 3)
}

func TestWithRateLimitZeroIsUnlimited(t *testing.T) {
	tr := New("http://localhost", WithRateLimit(5), WithRateLimit(0))
	assert.Nil(t, tr.limiter)
}

func TestNewFromConfig(t *testing.T) {
	_, srv := newFakeGate(t)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := domain.DefaultFeedConfig()
	cfg.GSAHostname = u.Hostname()
	cfg.GSAPort = port
	cfg.GSATimeout = 5 * time.Second
	cfg.GSAMaxSendsPerSecond = 100

	tr := NewFromConfig(cfg)
	assert.Equal(t, srv.URL, tr.BaseURL())
	assert.Equal(t, 5*time.Second, tr.client.Timeout)
	require.NotNil(t, tr.limiter)
	assert.NoError(t, tr.SendGroups(context.Background(), "adaptor", "<xmlgroups/>", false))
}

func TestNewFromConfigDefaultTimeout(t *testing.T) {
	cfg := domain.DefaultFeedConfig()
	cfg.GSATimeout = 0

	tr := NewFromConfig(cfg)
	assert.Equal(t, "http://localhost:19900", tr.BaseURL())
	assert.Equal(t, 30*time.Second, tr.client.Timeout)
	assert.Nil(t, tr.limiter)
}
