package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-adaptor/internal/adapters/driven/codec"
	"github.com/custodia-labs/sercha-adaptor/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-adaptor/internal/adapters/driven/feed"
	"github.com/custodia-labs/sercha-adaptor/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-adaptor/internal/adapters/driven/transport/feedergate"
	"github.com/custodia-labs/sercha-adaptor/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-adaptor/internal/core/services"
	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// Watcher is a background task started by the run command.
// Watch blocks until ctx is done or the task fails.
type Watcher func(ctx context.Context) error

// Services are the collaborators behind the commands.
// Nil fields make the commands that need them fail with a
// "not configured" error.
type Services struct {
	Pusher      driving.FeedPusher
	Incremental driven.IncrementalLister
	Journal     driving.JournalReader
	Archive     driven.FeedArchiveStore
	Config      driving.ConfigService
	Codec       driven.DocIDCodec
	Scheduler   driving.Scheduler

	// RootPath is the directory the lister publishes, used to resolve
	// decoded ids to files.
	RootPath string

	// Watchers run alongside the scheduler.
	Watchers []Watcher

	closers []func() error
}

// Close releases the resources opened by NewServices.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// NewServices wires the adaptor from the configuration in dir.
// An empty dir selects file.DefaultConfigDir.
func NewServices(dir string) (*Services, error) {
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	configService := services.NewConfigService(store)
	cfg := configService.FeedConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", store.Path(), err)
	}

	dataDir := cfg.ArchiveDir
	if dataDir == "" {
		if dataDir, err = sqlite.DefaultDataDir(); err != nil {
			return nil, err
		}
	}
	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}

	docIDCodec := codec.NewFromConfig(cfg)
	lister := filesystem.New(cfg.RootPath)
	sender := services.NewDocIDSender(
		feed.NewMaker(docIDCodec),
		feedergate.NewFromConfig(cfg),
		db.FeedArchiveStore(),
		nil,
		configService,
		lister,
	)
	scheduler := services.NewScheduler(
		domain.SchedulerConfigFromFeed(cfg),
		db.SchedulerStore(),
		sender,
		nil,
		services.WithPushOnStartup(cfg.PushDocIDsOnStartup),
		services.WithIncrementalLister(lister),
	)

	logger.Debug("config %s, data %s, root %s", store.Path(), db.Path(), lister.Root())

	return &Services{
		Pusher:      sender,
		Incremental: lister,
		Journal:     sender.Journal(),
		Archive:     db.FeedArchiveStore(),
		Config:      configService,
		Codec:       docIDCodec,
		Scheduler:   scheduler,
		RootPath:    lister.Root(),
		Watchers: []Watcher{
			func(ctx context.Context) error {
				// Watch logs failed reloads itself.
				return file.Watch(ctx, store, func(err error) {
					if err == nil {
						logger.Info("config reloaded from %s", store.Path())
					}
				})
			},
			func(ctx context.Context) error {
				if err := lister.Watch(ctx); err != nil {
					return err
				}
				<-ctx.Done()
				return nil
			},
		},
		closers: []func() error{db.Close, lister.Close},
	}, nil
}
