package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// Ensure DocIDSender implements the pusher interfaces.
var (
	_ driving.FeedPusher = (*DocIDSender)(nil)
	_ driven.DocIDPusher = (*DocIDSender)(nil)
)

// DocIDSender drains listings into bounded feed submissions.
// The sender starts no goroutines; every send runs on the caller's goroutine.
type DocIDSender struct {
	maker     driven.FeedMaker
	transport driven.FeedTransport
	archiver  driven.FeedArchiver
	journal   *Journal
	config    driven.FeedConfigProvider
	lister    driven.Lister

	defaultHandler driven.ExceptionHandler

	fullRunning        atomic.Bool
	incrementalRunning atomic.Bool
}

// SenderOption configures a DocIDSender.
type SenderOption func(*DocIDSender)

// WithDefaultHandler sets the handler used when a direct push is given none.
func WithDefaultHandler(h driven.ExceptionHandler) SenderOption {
	return func(s *DocIDSender) {
		if h != nil {
			s.defaultHandler = h
		}
	}
}

// NewDocIDSender creates a sender.
// archiver and lister may be nil; a nil journal gets a fresh one.
func NewDocIDSender(
	maker driven.FeedMaker,
	transport driven.FeedTransport,
	archiver driven.FeedArchiver,
	journal *Journal,
	config driven.FeedConfigProvider,
	lister driven.Lister,
	opts ...SenderOption,
) *DocIDSender {
	if journal == nil {
		journal = NewJournal(nil)
	}
	s := &DocIDSender{
		maker:          maker,
		transport:      transport,
		archiver:       archiver,
		journal:        journal,
		config:         config,
		lister:         lister,
		defaultHandler: NewBackoffHandler(DefaultBackoffPolicy()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Journal returns the journal the sender records into.
func (s *DocIDSender) Journal() *Journal {
	return s.journal
}

// PushFullDocIDsFromAdaptor runs the configured lister once to completion.
func (s *DocIDSender) PushFullDocIDsFromAdaptor(ctx context.Context, handler driven.ExceptionHandler) error {
	if handler == nil {
		return fmt.Errorf("%w: full push requires an exception handler", domain.ErrInvalidInput)
	}
	if s.lister == nil {
		return fmt.Errorf("%w: no lister configured", domain.ErrInvalidInput)
	}
	if !s.fullRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", domain.ErrPushInProgress, domain.PushFull)
	}
	defer s.fullRunning.Store(false)

	return s.pushFromLister(ctx, domain.PushFull, handler, s.lister.GetDocIDs)
}

// PushIncrementalDocIDsFromAdaptor runs one poll of lister.
func (s *DocIDSender) PushIncrementalDocIDsFromAdaptor(
	ctx context.Context,
	lister driven.IncrementalLister,
	handler driven.ExceptionHandler,
) error {
	if handler == nil {
		return fmt.Errorf("%w: incremental push requires an exception handler", domain.ErrInvalidInput)
	}
	if lister == nil {
		return fmt.Errorf("%w: no incremental lister", domain.ErrInvalidInput)
	}
	if !s.incrementalRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", domain.ErrPushInProgress, domain.PushIncremental)
	}
	defer s.incrementalRunning.Store(false)

	return s.pushFromLister(ctx, domain.PushIncremental, handler, lister.GetModifiedDocIDs)
}

// pushFromLister invokes list until it succeeds, fails fatally, or the
// handler gives up. The journal is marked FAILURE on every exit other than
// a clean success, panics included.
func (s *DocIDSender) pushFromLister(
	ctx context.Context,
	kind domain.PushKind,
	handler driven.ExceptionHandler,
	list func(context.Context, driven.DocIDPusher) error,
) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}

	logger.Section(fmt.Sprintf("%s push", kind))
	s.pushStarted(kind)
	success := false
	defer func() {
		s.pushFinished(kind, success)
	}()

	session := &pushSession{sender: s, handler: handler}
	for ntries := 1; ; ntries++ {
		session.reset()
		err := list(ctx, session)
		if err == nil {
			break
		}
		if isCancelled(ctx, err) {
			return cancelled(err)
		}
		if domain.IsFatal(err) {
			return fmt.Errorf("%s listing: %w", kind, err)
		}

		logger.Warn("%s listing failed (attempt %d): %v", kind, ntries, err)
		retry := handler.HandleException(ctx, err, ntries)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return cancelled(ctxErr)
		}
		if !retry {
			return fmt.Errorf("%w: %s listing gave up after %d attempts: %w",
				domain.ErrPushIncomplete, kind, ntries, err)
		}
	}

	if session.fatal != nil {
		return fmt.Errorf("%s push: %w", kind, session.fatal)
	}
	if session.incomplete {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		return fmt.Errorf("%w: %s push abandoned a batch", domain.ErrPushIncomplete, kind)
	}

	success = true
	logger.Info("%s push complete", kind)
	return nil
}

func (s *DocIDSender) pushStarted(kind domain.PushKind) {
	if kind == domain.PushFull {
		s.journal.RecordFullPushStarted()
	} else {
		s.journal.RecordIncrementalPushStarted()
	}
}

func (s *DocIDSender) pushFinished(kind domain.PushKind, success bool) {
	if kind == domain.PushFull {
		s.journal.RecordFullPushFinished(success)
	} else {
		s.journal.RecordIncrementalPushFinished(success)
	}
}

// PushDocIDs sends ids as add records.
func (s *DocIDSender) PushDocIDs(
	ctx context.Context,
	ids []domain.DocID,
	handler driven.ExceptionHandler,
) (*domain.DocID, error) {
	failed, err := s.PushRecords(ctx, domain.NewRecords(ids), handler)
	if failed == nil {
		return nil, err
	}
	id := failed.DocID()
	return &id, err
}

// PushRecords sends records in batches of at most feed.maxUrls.
func (s *DocIDSender) PushRecords(
	ctx context.Context,
	records []domain.Record,
	handler driven.ExceptionHandler,
) (*domain.Record, error) {
	cfg := s.config.FeedConfig()
	logger.Debug("pushing %d records to %s", len(records), cfg.Name)

	items := make([]domain.Item, len(records))
	for i := range records {
		items[i] = records[i]
	}
	idx, err := s.pushItems(ctx, cfg, items, s.handlerOrDefault(handler))
	if idx < 0 {
		return nil, err
	}
	r := records[idx]
	return &r, err
}

// PushNamedResources sends ACLs, ordered by DocID.
func (s *DocIDSender) PushNamedResources(
	ctx context.Context,
	resources map[domain.DocID]*domain.Acl,
	handler driven.ExceptionHandler,
) (*domain.DocID, error) {
	cfg := s.config.FeedConfig()
	if cfg.MarkAllDocsAsPublic {
		logger.Debug("all documents are public, skipping %d named resources", len(resources))
		return nil, nil
	}

	ids := make([]domain.DocID, 0, len(resources))
	for id, acl := range resources {
		if acl == nil {
			return nil, fmt.Errorf("%w: nil ACL for %s", domain.ErrInvalidInput, id)
		}
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b domain.DocID) int {
		return strings.Compare(a.UniqueID(), b.UniqueID())
	})

	items := make([]domain.Item, len(ids))
	for i, id := range ids {
		items[i] = domain.NewAclItem(id, *resources[id])
	}
	logger.Debug("pushing %d named resources to %s", len(items), cfg.Name)

	idx, err := s.pushItems(ctx, cfg, items, s.handlerOrDefault(handler))
	if idx < 0 {
		return nil, err
	}
	id := ids[idx]
	return &id, err
}

// PushGroupDefinitions sends group memberships, ordered by group.
func (s *DocIDSender) PushGroupDefinitions(
	ctx context.Context,
	groups map[domain.Principal][]domain.Principal,
	caseSensitive bool,
	handler driven.ExceptionHandler,
) (*domain.Principal, error) {
	cfg := s.config.FeedConfig()
	if cfg.MarkAllDocsAsPublic {
		logger.Debug("all documents are public, skipping %d group definitions", len(groups))
		return nil, nil
	}

	entries := make([]domain.GroupEntry, 0, len(groups))
	for group, members := range groups {
		if !group.IsGroup() {
			return nil, fmt.Errorf("%w: %s is not a group", domain.ErrInvalidInput, group)
		}
		entries = append(entries, domain.GroupEntry{Group: group, Members: members})
	}
	slices.SortFunc(entries, func(a, b domain.GroupEntry) int {
		return domain.ComparePrincipals(a.Group, b.Group)
	})
	logger.Debug("pushing %d group definitions to %s", len(entries), cfg.Name)

	job := batchJob[domain.GroupEntry]{
		name: cfg.Name,
		build: func(batch []domain.GroupEntry) (string, error) {
			return s.maker.MakeGroupDefinitionsXML(batch, caseSensitive)
		},
		send: func(ctx context.Context, xml string) error {
			return s.transport.SendGroups(ctx, cfg.Name, xml, cfg.UseCompression)
		},
		delivered: s.journal.RecordGroupsPushed,
	}
	idx, err := runBatches(ctx, s, job, entries, cfg.MaxURLs, s.handlerOrDefault(handler))
	if idx < 0 {
		return nil, err
	}
	g := entries[idx].Group
	return &g, err
}

func (s *DocIDSender) pushItems(
	ctx context.Context,
	cfg domain.FeedConfig,
	items []domain.Item,
	handler driven.ExceptionHandler,
) (int, error) {
	job := batchJob[domain.Item]{
		name: cfg.Name,
		build: func(batch []domain.Item) (string, error) {
			return s.maker.MakeMetadataAndURLXML(cfg.Name, batch)
		},
		send: func(ctx context.Context, xml string) error {
			return s.transport.SendMetadataAndURL(ctx, cfg.Name, xml, cfg.UseCompression)
		},
		delivered: s.journal.RecordDocIDsPushed,
	}
	return runBatches(ctx, s, job, items, cfg.MaxURLs, handler)
}

func (s *DocIDSender) handlerOrDefault(h driven.ExceptionHandler) driven.ExceptionHandler {
	if h == nil {
		return s.defaultHandler
	}
	return h
}

func (s *DocIDSender) archive(ctx context.Context, name, xml string, failed bool) {
	if s.archiver == nil {
		return
	}
	var err error
	if failed {
		err = s.archiver.SaveFailedFeed(ctx, name, xml)
	} else {
		err = s.archiver.SaveFeed(ctx, name, xml)
	}
	if err != nil {
		logger.Warn("failed to archive feed for %s: %v", name, err)
	}
}

// batchJob describes how one kind of item becomes a feed.
type batchJob[T any] struct {
	name      string
	build     func(batch []T) (string, error)
	send      func(ctx context.Context, xml string) error
	delivered func(n int)
}

// runBatches sends items in consecutive slices of at most maxURLs.
// It returns the index of the first item of the batch that could not be
// delivered, or -1 when everything was sent.
//
// Cancellation is checked on entry and after every handler decision.
// Cancellation seen while the first batch is in flight is an error;
// seen later, it ends the push gracefully at the in-flight batch.
func runBatches[T any](
	ctx context.Context,
	s *DocIDSender,
	job batchJob[T],
	items []T,
	maxURLs int,
	handler driven.ExceptionHandler,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, cancelled(err)
	}
	if maxURLs <= 0 {
		return -1, fmt.Errorf("%w: %s must be positive, got %d", domain.ErrInvalidInput, domain.KeyFeedMaxURLs, maxURLs)
	}

	for start := 0; start < len(items); start += maxURLs {
		batch := items[start:min(start+maxURLs, len(items))]

		xml, err := job.build(batch)
		if err != nil {
			return start, fmt.Errorf("build feed for %s: %w", job.name, domain.Fatal(err))
		}

		for ntries := 1; ; ntries++ {
			logger.Debug("sending %d items to %s (attempt %d)", len(batch), job.name, ntries)
			err = job.send(ctx, xml)
			if err == nil {
				s.journal.RecordFeedSent()
				job.delivered(len(batch))
				s.archive(ctx, job.name, xml, false)
				break
			}
			if domain.IsFatal(err) {
				return start, fmt.Errorf("send feed to %s: %w", job.name, err)
			}

			retry := handler.HandleException(ctx, err, ntries)
			if ctxErr := ctx.Err(); ctxErr != nil {
				if start == 0 {
					return -1, cancelled(ctxErr)
				}
				logger.Info("push to %s cancelled at item %d", job.name, start)
				return start, nil
			}
			if !retry {
				logger.Warn("abandoning batch of %d items to %s after %d attempts: %v",
					len(batch), job.name, ntries, err)
				s.journal.RecordFeedFailed()
				s.archive(ctx, job.name, xml, true)
				return start, nil
			}
		}
	}
	return -1, nil
}

// isCancelled reports whether a listing error means the push was cancelled.
// A deadline or cancellation inside the lister's own I/O, with ctx still
// live, is an ordinary failure for the handler to judge.
func isCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, domain.ErrCancelled)
}

func cancelled(cause error) error {
	if errors.Is(cause, domain.ErrCancelled) {
		return cause
	}
	return fmt.Errorf("%w: %w", domain.ErrCancelled, cause)
}

// pushSession is the pusher handed to a lister during one adaptor push.
// It applies the push's handler and remembers whether anything was lost.
type pushSession struct {
	sender  *DocIDSender
	handler driven.ExceptionHandler

	incomplete bool
	fatal      error
}

func (p *pushSession) reset() {
	p.incomplete = false
	p.fatal = nil
}

func (p *pushSession) use(h driven.ExceptionHandler) driven.ExceptionHandler {
	if h == nil {
		return p.handler
	}
	return h
}

func (p *pushSession) observe(failed bool, err error) {
	if failed || err != nil {
		p.incomplete = true
	}
	if domain.IsFatal(err) && p.fatal == nil {
		p.fatal = err
	}
}

func (p *pushSession) PushDocIDs(
	ctx context.Context,
	ids []domain.DocID,
	handler driven.ExceptionHandler,
) (*domain.DocID, error) {
	failed, err := p.sender.PushDocIDs(ctx, ids, p.use(handler))
	p.observe(failed != nil, err)
	return failed, err
}

func (p *pushSession) PushRecords(
	ctx context.Context,
	records []domain.Record,
	handler driven.ExceptionHandler,
) (*domain.Record, error) {
	failed, err := p.sender.PushRecords(ctx, records, p.use(handler))
	p.observe(failed != nil, err)
	return failed, err
}

func (p *pushSession) PushNamedResources(
	ctx context.Context,
	resources map[domain.DocID]*domain.Acl,
	handler driven.ExceptionHandler,
) (*domain.DocID, error) {
	failed, err := p.sender.PushNamedResources(ctx, resources, p.use(handler))
	p.observe(failed != nil, err)
	return failed, err
}

func (p *pushSession) PushGroupDefinitions(
	ctx context.Context,
	groups map[domain.Principal][]domain.Principal,
	caseSensitive bool,
	handler driven.ExceptionHandler,
) (*domain.Principal, error) {
	failed, err := p.sender.PushGroupDefinitions(ctx, groups, caseSensitive, p.use(handler))
	p.observe(failed != nil, err)
	return failed, err
}
