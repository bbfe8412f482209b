package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
)

// --- Mock implementations for feed engine testing ---

// mockFeedMaker implements driven.FeedMaker. Each document is the number of
// documents made before it.
type mockFeedMaker struct {
	names  []string
	items  [][]domain.Item
	groups [][]domain.GroupEntry
	err    error
	i      int
}

func (m *mockFeedMaker) MakeMetadataAndURLXML(datasource string, items []domain.Item) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.names = append(m.names, datasource)
	m.items = append(m.items, append([]domain.Item(nil), items...))
	return m.next(), nil
}

func (m *mockFeedMaker) MakeGroupDefinitionsXML(entries []domain.GroupEntry, _ bool) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.groups = append(m.groups, append([]domain.GroupEntry(nil), entries...))
	return m.next(), nil
}

func (m *mockFeedMaker) next() string {
	s := strconv.Itoa(m.i)
	m.i++
	return s
}

// mockTransport implements driven.FeedTransport.
// sendFn, when set, decides the outcome of every send.
type mockTransport struct {
	mu           sync.Mutex
	datasources  []string
	groupsources []string
	xmlStrings   []string
	attempts     int
	sendFn       func(ctx context.Context, attempt int) error
}

func (m *mockTransport) SendMetadataAndURL(ctx context.Context, datasource, xml string, _ bool) error {
	if err := m.try(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasources = append(m.datasources, datasource)
	m.xmlStrings = append(m.xmlStrings, xml)
	return nil
}

func (m *mockTransport) SendGroups(ctx context.Context, groupsource, xml string, _ bool) error {
	if err := m.try(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupsources = append(m.groupsources, groupsource)
	m.xmlStrings = append(m.xmlStrings, xml)
	return nil
}

func (m *mockTransport) try(ctx context.Context) error {
	m.mu.Lock()
	m.attempts++
	attempt := m.attempts
	fn := m.sendFn
	m.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, attempt)
}

// mockArchiver implements driven.FeedArchiver.
type mockArchiver struct {
	feeds       []string
	failedFeeds []string
	err         error
}

func (m *mockArchiver) SaveFeed(_ context.Context, _, xml string) error {
	m.feeds = append(m.feeds, xml)
	return m.err
}

func (m *mockArchiver) SaveFailedFeed(_ context.Context, _, xml string) error {
	m.failedFeeds = append(m.failedFeeds, xml)
	return m.err
}

// countingHandler implements driven.ExceptionHandler and records every call.
type countingHandler struct {
	calls  int
	ntries []int
	decide func(ctx context.Context, ntries int) bool
}

func (h *countingHandler) HandleException(ctx context.Context, _ error, ntries int) bool {
	h.calls++
	h.ntries = append(h.ntries, ntries)
	if h.decide == nil {
		return false
	}
	return h.decide(ctx, ntries)
}

// panickingHandler fails the test if a send ever fails.
var panickingHandler = driven.ExceptionHandlerFunc(func(context.Context, error, int) bool {
	panic("exception handler must not be called")
})

// mockConfigStore implements driven.ConfigStore in memory.
type mockConfigStore struct {
	data    map[string]any
	saveErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		i, _ := strconv.Atoi(v)
		return i
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	switch v := m.data[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	switch v := m.data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockConfigStore) Save() error  { return m.saveErr }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "mock" }

// Ensure mocks implement interfaces
var (
	_ driven.FeedMaker        = (*mockFeedMaker)(nil)
	_ driven.FeedTransport    = (*mockTransport)(nil)
	_ driven.FeedArchiver     = (*mockArchiver)(nil)
	_ driven.ExceptionHandler = (*countingHandler)(nil)
	_ driven.ConfigStore      = (*mockConfigStore)(nil)
)
