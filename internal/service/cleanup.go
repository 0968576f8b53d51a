package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ldm616/justus-sub000/internal/metrics"
	"github.com/ldm616/justus-sub000/pkg/logger"
	"github.com/ldm616/justus-sub000/pkg/storage"
)

type cleanupJob struct {
	reason string
	keys   []string
}

// Cleaner deletes blobs that no row references any more. It runs outside any
// request: failures are logged and counted, never returned to a caller.
// Blobs lost to a full queue or a crash are left for an out-of-band sweep.
type Cleaner struct {
	store   BlobStore
	jobs    chan cleanupJob
	workers int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewCleaner(store BlobStore, workers, queueSize int, timeout time.Duration) *Cleaner {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Cleaner{
		store:   store,
		jobs:    make(chan cleanupJob, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

func (c *Cleaner) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for job := range c.jobs {
				c.run(job)
			}
		}()
	}
}

// Enqueue schedules keys for deletion without blocking. It reports false when
// the job was dropped.
func (c *Cleaner) Enqueue(reason string, keys []string) bool {
	if len(keys) == 0 {
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		logger.Log.Warnw("Cleanup after shutdown, dropping", "reason", reason, "keys", keys)
		metrics.BlobCleanup.WithLabelValues(metrics.ResultDropped).Inc()
		return false
	}

	select {
	case c.jobs <- cleanupJob{reason: reason, keys: keys}:
		return true
	default:
		logger.Log.Warnw("Cleanup queue full, dropping", "reason", reason, "keys", keys)
		metrics.BlobCleanup.WithLabelValues(metrics.ResultDropped).Inc()
		return false
	}
}

// Stop refuses new jobs and waits for queued ones until ctx is done.
func (c *Cleaner) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.jobs)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cleaner) run(job cleanupJob) {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := c.store.Delete(ctx, job.keys)
	if err == nil {
		metrics.BlobCleanup.WithLabelValues(metrics.ResultOK).Inc()
		logger.Log.Debugw("Blobs deleted", "reason", job.reason, "count", len(job.keys))
		return
	}

	metrics.BlobCleanup.WithLabelValues(metrics.ResultFailed).Inc()
	var partial *storage.PartialDeleteError
	if errors.As(err, &partial) {
		logger.Log.Errorw("Blob cleanup incomplete", "reason", job.reason, "failed_keys", partial.Keys(), "err", err)
		return
	}
	logger.Log.Errorw("Blob cleanup failed", "reason", job.reason, "keys", job.keys, "err", err)
}
