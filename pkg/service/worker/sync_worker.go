package worker

import (
	"context"
	"sync"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Syncer runs one sync pass
type Syncer interface {
	Run(ctx context.Context, trigger string) *model.SyncReport
}

// SyncWorker runs scheduled sync passes in the background.
//
// Architecture assumptions:
// - Single receiver instance (no distributed locking)
// - Passes of one process never overlap; the syncer shares an in-flight pass
type SyncWorker struct {
	syncer   Syncer
	interval time.Duration
	trigger  string
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewSyncWorker creates a worker that syncs every interval. trigger is passed
// to every pass it starts.
func NewSyncWorker(syncer Syncer, interval time.Duration, trigger string) (*SyncWorker, error) {
	if interval <= 0 {
		return nil, goerr.New("sync interval must be positive", goerr.V("interval", interval))
	}
	if trigger == "" {
		return nil, goerr.New("sync trigger is required")
	}
	return &SyncWorker{
		syncer:   syncer,
		interval: interval,
		trigger:  trigger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins the background loop
// - The first pass runs immediately in the background goroutine
// - Does not block server startup
func (w *SyncWorker) Start(ctx context.Context) error {
	logging.From(ctx).Info("Sync worker starting", "interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for the in-flight pass. Calling
// it more than once is safe.
func (w *SyncWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("Sync worker stopping")
		close(w.stopCh)
	})
	<-w.doneCh
}

// Done is closed once the worker loop has exited
func (w *SyncWorker) Done() <-chan struct{} {
	return w.doneCh
}

func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.syncOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.syncOnce(ctx)

		case <-w.stopCh:
			logging.From(ctx).Info("Sync worker received stop signal")
			return

		case <-ctx.Done():
			logging.From(ctx).Info("Sync worker context cancelled")
			return
		}
	}
}

func (w *SyncWorker) syncOnce(ctx context.Context) {
	report := w.syncer.Run(ctx, w.trigger)
	if report == nil {
		return
	}

	logger := logging.From(ctx)
	if report.Success {
		logger.Info("Scheduled sync finished",
			"message", report.Message,
			"duration", report.Duration().String())
	} else {
		// Retried on the next tick
		logger.Warn("Scheduled sync failed", "message", report.Message)
	}
}
