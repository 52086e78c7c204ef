package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edulink/backend/internal/metrics"
	"github.com/edulink/backend/internal/store"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const maxRetryWait = 250 * time.Millisecond

// TxRunner runs store transactions, retrying the whole function on
// conflict or a dropped connection. Business errors returned by fn end the
// run immediately.
type TxRunner struct {
	store      store.Store
	maxRetries uint64
	base       time.Duration
	logger     *zap.Logger
}

func NewTxRunner(s store.Store, maxRetries int, base time.Duration, logger *zap.Logger) *TxRunner {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if base <= 0 {
		base = time.Millisecond
	}
	return &TxRunner{
		store:      s,
		maxRetries: uint64(maxRetries),
		base:       base,
		logger:     logger,
	}
}

// Store exposes the underlying store for plain reads.
func (r *TxRunner) Store() store.Store {
	return r.store
}

// Run executes fn inside a store transaction. fn may be invoked more than
// once, so it must not leak state between attempts.
func (r *TxRunner) Run(ctx context.Context, op string, fn func(tx store.Tx) error) error {
	backoff := retry.NewExponential(r.base)
	backoff = retry.WithCappedDuration(maxRetryWait, backoff)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(r.maxRetries, backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := r.store.RunTransaction(ctx, fn)
		if err != nil && store.IsTransient(err) {
			if uint64(attempt) <= r.maxRetries {
				metrics.RecordStoreRetry()
				r.logger.Debug("retrying store transaction",
					zap.String("operation", op),
					zap.Int("attempt", attempt),
					zap.Error(err))
			}
			return retry.RetryableError(err)
		}
		return err
	})

	if err != nil && store.IsTransient(err) {
		r.logger.Warn("store transaction gave up",
			zap.String("operation", op),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	return err
}

// read maps a missing document onto the domain error for that collection.
// Transient errors keep their store identity so Run can retry them.
func read(ctx context.Context, r store.Reader, collection, id string, dest any, notFound error) error {
	err := r.Get(ctx, collection, id, dest)
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	return nil
}

// surface converts a transient store error seen outside a transaction.
func surface(err error) error {
	if err != nil && store.IsTransient(err) {
		return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
	}
	return err
}
