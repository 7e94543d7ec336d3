// Package reload implements the serializing reload coordinator: four
// independent trigger sources (HTTP, SIGHUP, interval timer, filesystem
// watcher) all fan into one worker goroutine that ensures at most one
// discovery walk runs at a time, coalescing requests that arrive while a
// walk is already in flight.
package reload

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/logger"

	"github.com/tarkov-database/mbtileserver/core/discovery"
	"github.com/tarkov-database/mbtileserver/core/registry"
)

// Coordinator owns the single in-flight-reload invariant for one registry.
type Coordinator struct {
	root     string
	poolSize int
	reg      *registry.Registry

	requests chan struct{}
}

// New builds a Coordinator that discovers tilesets under root and publishes
// them into reg. It does not perform an initial discovery; seed reg with
// the result of discovery.Discover at startup before serving traffic.
func New(reg *registry.Registry, root string, poolSize int) *Coordinator {
	return &Coordinator{
		root:     root,
		poolSize: poolSize,
		reg:      reg,
		requests: make(chan struct{}, 1),
	}
}

// TriggerReload enqueues a reload request. It never blocks: if a reload is
// already pending, this call is a no-op (the pending reload will pick up
// any filesystem state current as of when it runs).
func (c *Coordinator) TriggerReload() {
	select {
	case c.requests <- struct{}{}:
	default:
	}
}

// Run starts the serializing worker and, if enabled, the signal/interval/
// watcher trigger goroutines. It blocks until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration, enableSignal, enableWatcher bool) {
	if enableSignal {
		go c.watchSignal(ctx)
	}
	if interval > 0 {
		go c.watchInterval(ctx, interval)
	}
	if enableWatcher {
		go c.watchFilesystem(ctx)
	}

	c.worker(ctx)
}

func (c *Coordinator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.requests:
			c.reloadOnce(ctx)
		}
	}
}

func (c *Coordinator) reloadOnce(ctx context.Context) {
	snap, err := discovery.Discover(ctx, c.root, c.poolSize)
	if err != nil {
		logger.Errorf("reload failed, keeping previous tileset snapshot: %v", err)
		return
	}
	c.reg.Reload(snap)
}

func (c *Coordinator) watchSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			logger.Info("SIGHUP received, triggering reload")
			c.TriggerReload()
		}
	}
}

func (c *Coordinator) watchInterval(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.TriggerReload()
		}
	}
}

func (c *Coordinator) watchFilesystem(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Errorf("filesystem watcher disabled, could not start: %v", err)
		return
	}
	defer watcher.Close()

	if err := addRecursive(watcher, c.root); err != nil {
		logger.Errorf("filesystem watcher disabled, could not watch %s: %v", c.root, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				c.TriggerReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warningf("filesystem watcher error: %v", err)
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepathWalkDirs(root, func(dir string) error {
		return watcher.Add(dir)
	})
}
