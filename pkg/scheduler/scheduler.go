package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/britcoin/pkg/ledger"
	"github.com/ava-labs/britcoin/pkg/metrics"
)

const (
	readTimeout = 5 * time.Second
	maxRetries  = 3
	backoff     = 300 * time.Millisecond
)

// Start audits the persisted chain every interval until ctx is done.
//
// Each audit reloads the store, verifies it and compares its length with
// height, the in-memory chain length. A store that cannot be read after
// retries, or that lags the in-memory chain, is logged and counted. A
// persisted chain that fails verification is returned as an error.
func Start(
	ctx context.Context,
	store ledger.Store,
	height func() int,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
	interval time.Duration,
) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := Audit(ctx, store, height, m, log); err != nil {
				return err
			}
		}
	}
}

// Audit runs a single audit pass.
func Audit(
	ctx context.Context,
	store ledger.Store,
	height func() int,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
) error {
	// read the in-memory height first: every block counted here has already
	// gone through its store append
	want := height()

	var (
		blocks []*ledger.Block
		err    error
	)
	for attempt := 0; attempt <= maxRetries; attempt++ {
		ctxR, cancel := context.WithTimeout(ctx, readTimeout)
		blocks, err = ledger.LoadBlocks(ctxR, store)
		cancel()
		if err == nil || ctx.Err() != nil {
			break
		}
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		m.IncError(metrics.ErrTypeAudit)
		log.Warnw("failed to read persisted chain for audit", "error", err)
		return nil
	}

	m.SetPersistedHeight(len(blocks))
	if err := ledger.Verify(blocks); err != nil {
		m.IncError(metrics.ErrTypeAudit)
		return fmt.Errorf("persisted chain failed audit: %w", err)
	}

	if lag := want - len(blocks); lag > 0 {
		m.IncError(metrics.ErrTypeAudit)
		log.Warnw("persisted chain is behind the in-memory chain",
			"persisted", len(blocks),
			"inMemory", want,
			"missing", lag,
		)
		return nil
	}

	log.Debugw("persisted chain audited", "blocks", len(blocks))
	return nil
}
