package schema

import (
	"context"
	"sync"
	"time"

	"github.com/autoperception/dataset-explorer/log"
)

// Refresher reloads read-mostly state kept in memory
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Updater periodically refreshes the catalog and metadata caches
type Updater struct {
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	once           sync.Once
	updateInterval time.Duration
	refreshers     []Refresher
	logger         log.Logger
}

func NewUpdater(updateInterval time.Duration, logger log.Logger, refreshers ...Refresher) *Updater {
	ctx, cancel := context.WithCancel(context.Background())
	return &Updater{
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		updateInterval: updateInterval,
		refreshers:     refreshers,
		logger:         logger,
	}
}

// Start blocks, refreshing on every interval until Stop is called
func (u *Updater) Start() {
	defer close(u.done)
	for {
		if !u.sleep() {
			return
		}
		u.update()
	}
}

func (u *Updater) Stop() {
	u.once.Do(func() {
		u.cancel()
	})
}

// Done is closed once Start returned
func (u *Updater) Done() <-chan struct{} {
	return u.done
}

func (u *Updater) update() {
	for _, refresher := range u.refreshers {
		if err := refresher.Refresh(u.ctx); err != nil {
			u.logger.Error("unable to refresh metadata", "error", err)
		}
	}
}

func (u *Updater) sleep() bool {
	select {
	case <-time.After(u.updateInterval):
		return true
	case <-u.ctx.Done():
		return false
	}
}
