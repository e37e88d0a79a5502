// Package miner is the single entry point external triggers use to grow the
// ledger. It wraps the chain with metrics, logging and block announcements.
package miner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/britcoin/pkg/ledger"
	"github.com/ava-labs/britcoin/pkg/metrics"
)

const defaultAnnounceTimeout = 10 * time.Second

// Announcer publishes a mined block.
type Announcer interface {
	Announce(ctx context.Context, block *ledger.Block) error
}

type Miner struct {
	chain           *ledger.Chain
	announcer       Announcer
	metrics         *metrics.Metrics
	log             *zap.SugaredLogger
	announceTimeout time.Duration
}

type Option func(*Miner)

// WithAnnouncer publishes every successfully persisted block.
func WithAnnouncer(a Announcer) Option {
	return func(m *Miner) { m.announcer = a }
}

// WithMetrics records mining metrics. A nil value disables them.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Miner) { m.metrics = mt }
}

// WithAnnounceTimeout bounds each announcement.
func WithAnnounceTimeout(d time.Duration) Option {
	return func(m *Miner) { m.announceTimeout = d }
}

func New(chain *ledger.Chain, log *zap.SugaredLogger, opts ...Option) *Miner {
	m := &Miner{
		chain:           chain,
		log:             log,
		announceTimeout: defaultAnnounceTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize loads or creates the chain.
func (m *Miner) Initialize(ctx context.Context) error {
	if err := m.chain.Initialize(ctx); err != nil {
		return err
	}
	m.updateChainMetrics()
	return nil
}

// Ready reports ErrEmptyChain until the chain is initialized.
func (m *Miner) Ready() error {
	if m.chain.Len() == 0 {
		return ledger.ErrEmptyChain
	}
	return nil
}

// LatestBlock returns the chain tip.
func (m *Miner) LatestBlock() (*ledger.Block, error) {
	return m.chain.LatestBlock()
}

// Mine runs one mining attempt for contributor. It reports whether a block
// was mined. A block that failed to persist is reported as mined together
// with the persistence error and is not announced. A failed announcement is
// logged and counted but never fails the attempt.
func (m *Miner) Mine(ctx context.Context, contributor, message string) (bool, error) {
	start := time.Now()
	block, err := m.chain.MineBlock(ctx, contributor, message)
	elapsed := time.Since(start).Seconds()
	defer m.updateChainMetrics()

	if err != nil {
		m.metrics.RecordMineAttempt(metrics.OutcomeError, elapsed)
		switch {
		case errors.Is(err, ledger.ErrPersistence):
			m.metrics.IncError(metrics.ErrTypePersistence)
		case errors.Is(err, ledger.ErrEmptyChain):
			m.metrics.IncError(metrics.ErrTypeEmptyChain)
		}
		m.log.Errorw("mining failed", "contributor", contributor, "error", err)
		return block != nil, err
	}

	if block == nil {
		m.metrics.RecordMineAttempt(metrics.OutcomeNoProof, elapsed)
		m.log.Debugw("no proof found", "contributor", contributor)
		return false, nil
	}

	m.metrics.RecordMineAttempt(metrics.OutcomeMined, elapsed)
	m.log.Infow("block mined",
		"index", block.Index(),
		"hash", block.Hash(),
		"contributor", contributor,
	)
	m.announce(ctx, block)
	return true, nil
}

func (m *Miner) announce(ctx context.Context, block *ledger.Block) {
	if m.announcer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.announceTimeout)
	defer cancel()

	err := m.announcer.Announce(ctx, block)
	m.metrics.RecordAnnouncement(err)
	if err != nil {
		m.log.Warnw("failed to announce block", "index", block.Index(), "error", err)
	}
}

func (m *Miner) updateChainMetrics() {
	m.metrics.UpdateChainMetrics(m.chain.Len(), len(m.chain.Pending()))
}
