package localsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
	"github.com/fitstack/liftsync/internal/store"
	"github.com/google/uuid"
)

// FlushMode selects how a flush was triggered.
type FlushMode int

const (
	// FlushAuto is the debounced flush driven by queue activity. Its
	// failures are retried silently.
	FlushAuto FlushMode = iota
	// FlushManual is a user-initiated save. It bypasses the debounce and
	// its failures must be surfaced.
	FlushManual
)

func (m FlushMode) String() string {
	if m == FlushManual {
		return "manual"
	}
	return "auto"
}

// Config tunes the sync client.
type Config struct {
	// Debounce is how long the auto loop waits after queue activity before
	// flushing, batching rapid edits together.
	Debounce time.Duration
	// RetryInterval is how long the auto loop waits before retrying after a
	// transport failure.
	RetryInterval time.Duration
}

// DefaultConfig returns the tuning used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Debounce:      1500 * time.Millisecond,
		RetryInterval: 5 * time.Second,
	}
}

// attempt pins one flush attempt: the snapshot boundary it covers and the
// idempotency key reused verbatim while retrying it.
type attempt struct {
	key    string
	maxSeq int64
}

// Client flushes the mutation queue in single-flight batches. Exactly one
// flush is in progress at any time; triggers that arrive while one is in
// flight coalesce into the next batch instead of racing it.
type Client struct {
	store   *store.Store
	queue   *store.Queue
	applier Applier
	cfg     Config
	logger  *slog.Logger

	mu      sync.Mutex // serializes flush attempts
	attempt *attempt
}

// NewClient builds a sync client over the local store.
func NewClient(st *store.Store, applier Applier, cfg Config, logger *slog.Logger) *Client {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultConfig().RetryInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		store:   st,
		queue:   st.Queue(),
		applier: applier,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run drives the debounced auto-flush loop until ctx is cancelled. Local
// edits keep landing in the store and queue while a flush is in flight; they
// simply belong to the next batch.
func (c *Client) Run(ctx context.Context) {
	timer := time.NewTimer(c.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.queue.Notify():
			timer.Reset(c.cfg.Debounce)
		case <-timer.C:
			err := c.Flush(ctx, FlushAuto)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrTempIDLeak):
				// Broken invariant, not a transient condition. Stop the
				// loop loudly rather than retrying into the same wall.
				c.logger.Error("sync stopped: internal consistency violation", "err", err)
				return
			case errors.Is(err, domain.ErrBatchRejected):
				// The server refused the whole batch; retrying the identical
				// ops would fail identically. Wait for new queue activity.
				c.logger.Error("server rejected batch; queue retained for inspection", "err", err)
			default:
				c.logger.Warn("auto flush failed, will retry", "err", err)
				timer.Reset(c.cfg.RetryInterval)
			}
		}
	}
}

// Flush transmits the pending operation log as one atomic batch and
// reconciles the response. Concurrent callers are serialized; a call landing
// while another flush is in flight simply waits and then flushes whatever is
// still pending (which may be nothing).
func (c *Client) Flush(ctx context.Context, mode FlushMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, err := c.queue.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot queue: %w", err)
	}
	if len(snapshot) == 0 {
		return nil
	}

	// A retried attempt must resend the identical op list under the identical
	// key; ops enqueued since the original snapshot stay out of it.
	if c.attempt == nil {
		c.attempt = &attempt{
			key:    uuid.NewString(),
			maxSeq: snapshot[len(snapshot)-1].Seq,
		}
	}
	ops := snapshot[:0:0]
	for _, p := range snapshot {
		if p.Seq <= c.attempt.maxSeq {
			ops = append(ops, p)
		}
	}
	if len(ops) == 0 {
		// Everything under the pinned boundary is already released; the
		// attempt covers nothing transmittable. Start a fresh one over the
		// full snapshot.
		c.attempt = &attempt{
			key:    uuid.NewString(),
			maxSeq: snapshot[len(snapshot)-1].Seq,
		}
		ops = snapshot
	}

	batch := &domain.Batch{
		Version:        domain.BatchVersion,
		IdempotencyKey: c.attempt.key,
		Ops:            make([]domain.Operation, len(ops)),
	}
	for i, p := range ops {
		batch.Ops[i] = p.Op
	}

	c.logger.Debug("flushing batch", "mode", mode.String(), "ops", len(batch.Ops), "key", batch.IdempotencyKey)

	resp, err := c.applier.Apply(ctx, batch)
	if err != nil {
		// Ops stay queued and the attempt (and its key) survives for the
		// next try of this same batch.
		return err
	}
	if !resp.Applied {
		return fmt.Errorf("batch %s not applied: %w", batch.IdempotencyKey, domain.ErrBatchRejected)
	}

	// The attempt is spent the moment the server acknowledges the batch. A
	// reconciliation failure must not pin the next flush to a snapshot
	// boundary whose ops may already be released.
	c.attempt = nil
	return c.reconcile(ctx, ops, resp)
}

// PendingKey exposes the in-flight idempotency key, if any. Used by tests
// and diagnostics.
func (c *Client) PendingKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return ""
	}
	return c.attempt.key
}
