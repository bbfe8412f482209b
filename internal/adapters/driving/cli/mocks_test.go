package cli

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-adaptor/internal/adapters/driven/codec"
	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driving"
)

// TestMain keeps commands from wiring services from the real home directory.
func TestMain(m *testing.M) {
	svc = &Services{}
	os.Exit(m.Run())
}

// mockPusher implements driving.FeedPusher for testing.
type mockPusher struct {
	mu sync.Mutex

	fullCalls        int
	incrementalCalls int
	ids              []domain.DocID
	handler          driven.ExceptionHandler

	err      error
	failedID *domain.DocID
}

var _ driving.FeedPusher = (*mockPusher)(nil)

func (m *mockPusher) PushDocIDs(
	_ context.Context,
	ids []domain.DocID,
	handler driven.ExceptionHandler,
) (*domain.DocID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, ids...)
	m.handler = handler
	return m.failedID, m.err
}

func (m *mockPusher) PushRecords(
	_ context.Context,
	_ []domain.Record,
	_ driven.ExceptionHandler,
) (*domain.Record, error) {
	return nil, m.err
}

func (m *mockPusher) PushNamedResources(
	_ context.Context,
	_ map[domain.DocID]*domain.Acl,
	_ driven.ExceptionHandler,
) (*domain.DocID, error) {
	return nil, m.err
}

func (m *mockPusher) PushGroupDefinitions(
	_ context.Context,
	_ map[domain.Principal][]domain.Principal,
	_ bool,
	_ driven.ExceptionHandler,
) (*domain.Principal, error) {
	return nil, m.err
}

func (m *mockPusher) PushFullDocIDsFromAdaptor(_ context.Context, handler driven.ExceptionHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullCalls++
	m.handler = handler
	return m.err
}

func (m *mockPusher) PushIncrementalDocIDsFromAdaptor(
	_ context.Context,
	_ driven.IncrementalLister,
	handler driven.ExceptionHandler,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementalCalls++
	m.handler = handler
	return m.err
}

// mockScheduler implements driving.Scheduler; Start blocks until ctx is done.
type mockScheduler struct {
	started chan struct{}
	stopped bool
	err     error
}

var _ driving.Scheduler = (*mockScheduler)(nil)

func (m *mockScheduler) Start(ctx context.Context) error {
	close(m.started)
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

// setupServices installs s for one test and resets flag variables.
func setupServices(t *testing.T, s *Services) {
	t.Helper()
	old := svc
	svc = s

	pushRetries = -1
	docIDResolve = false
	journalJSON = false
	archiveLimit = 20
	archiveJSON = false
	archiveShow = false

	t.Cleanup(func() { svc = old })
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func testCodec(t *testing.T) *codec.Codec {
	t.Helper()
	base, err := url.Parse("http://localhost:5678/doc/")
	require.NoError(t, err)
	return codec.New(base)
}
