package miner

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ava-labs/britcoin/internal/repository/inmemory"
	"github.com/ava-labs/britcoin/pkg/ledger"
	"github.com/ava-labs/britcoin/pkg/metrics"
)

type mockAnnouncer struct {
	mock.Mock
}

func (m *mockAnnouncer) Announce(ctx context.Context, block *ledger.Block) error {
	return m.Called(ctx, block).Error(0)
}

// failingStore accepts the genesis block and rejects every later append.
type failingStore struct {
	*inmemory.LedgerRepository
	err error
}

func (s *failingStore) Append(ctx context.Context, r ledger.Record) error {
	if r.Index > 0 {
		return s.err
	}
	return s.LedgerRepository.Append(ctx, r)
}

// metricValue returns the value of the first sample of name whose labels
// include the given pairs.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	samples:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labels); i += 2 {
				if got[labels[i]] != labels[i+1] {
					continue samples
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func newMiner(t *testing.T, store ledger.Store, difficulty uint, opts ...Option) (*Miner, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	log := zaptest.NewLogger(t).Sugar()
	chain := ledger.NewChain(InstrumentStore(store, m), ledger.ProofOfWork{Difficulty: difficulty}, log)
	opts = append([]Option{WithMetrics(m)}, opts...)
	return New(chain, log, opts...), reg
}

func TestMiner_MineAndAnnounce(t *testing.T) {
	t.Parallel()
	ann := &mockAnnouncer{}
	ann.On("Announce", mock.Anything, mock.MatchedBy(func(b *ledger.Block) bool { return b.Index() == 1 })).
		Return(nil).Once()

	mn, reg := newMiner(t, inmemory.NewLedgerRepository(), 0, WithAnnouncer(ann))
	require.ErrorIs(t, mn.Ready(), ledger.ErrEmptyChain)
	require.NoError(t, mn.Initialize(t.Context()))
	require.NoError(t, mn.Ready())

	ok, err := mn.Mine(t.Context(), "bob", "hi")
	require.NoError(t, err)
	require.True(t, ok)
	ann.AssertExpectations(t)

	tip, err := mn.LatestBlock()
	require.NoError(t, err)
	require.Equal(t, uint64(1), tip.Index())

	require.InDelta(t, 2, metricValue(t, reg, "britcoin_chain_height"), 0)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_mine_attempts_total", "outcome", metrics.OutcomeMined), 0)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_announcements_total", "status", metrics.StatusSuccess), 0)
	require.InDelta(t, 2, metricValue(t, reg, "britcoin_store_calls_total", "op", metrics.OpAppend, "status", metrics.StatusSuccess), 0)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_store_calls_total", "op", metrics.OpLoadAll), 0)
}

func TestMiner_NoProof(t *testing.T) {
	t.Parallel()
	ann := &mockAnnouncer{}
	mn, reg := newMiner(t, inmemory.NewLedgerRepository(), 65, WithAnnouncer(ann))
	require.NoError(t, mn.Initialize(t.Context()))

	ok, err := mn.Mine(t.Context(), "alice", "msg")
	require.NoError(t, err)
	require.False(t, ok)
	ann.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_mine_attempts_total", "outcome", metrics.OutcomeNoProof), 0)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_chain_height"), 0)
}

func TestMiner_AnnounceFailureDoesNotFailMining(t *testing.T) {
	t.Parallel()
	ann := &mockAnnouncer{}
	ann.On("Announce", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	mn, reg := newMiner(t, inmemory.NewLedgerRepository(), 0, WithAnnouncer(ann))
	require.NoError(t, mn.Initialize(t.Context()))

	ok, err := mn.Mine(t.Context(), "alice", "msg")
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_announcements_total", "status", metrics.StatusError), 0)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_errors_total", "type", metrics.ErrTypeAnnounce), 0)
}

func TestMiner_PersistenceFailure(t *testing.T) {
	t.Parallel()
	writeErr := errors.New("disk full")
	ann := &mockAnnouncer{}
	store := &failingStore{LedgerRepository: inmemory.NewLedgerRepository(), err: writeErr}

	mn, reg := newMiner(t, store, 0, WithAnnouncer(ann))
	require.NoError(t, mn.Initialize(t.Context()))

	ok, err := mn.Mine(t.Context(), "alice", "msg")
	require.True(t, ok)
	require.ErrorIs(t, err, ledger.ErrPersistence)
	require.ErrorIs(t, err, writeErr)
	ann.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)

	require.InDelta(t, 1, metricValue(t, reg, "britcoin_errors_total", "type", metrics.ErrTypePersistence), 0)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_store_calls_total", "op", metrics.OpAppend, "status", metrics.StatusError), 0)
	require.InDelta(t, 2, metricValue(t, reg, "britcoin_chain_height"), 0)
}

func TestMiner_BeforeInitialize(t *testing.T) {
	t.Parallel()
	mn, reg := newMiner(t, inmemory.NewLedgerRepository(), 0)

	ok, err := mn.Mine(t.Context(), "alice", "msg")
	require.False(t, ok)
	require.ErrorIs(t, err, ledger.ErrEmptyChain)
	require.InDelta(t, 1, metricValue(t, reg, "britcoin_errors_total", "type", metrics.ErrTypeEmptyChain), 0)
}

func TestMiner_WithoutMetricsOrAnnouncer(t *testing.T) {
	t.Parallel()
	chain := ledger.NewChain(InstrumentStore(inmemory.NewLedgerRepository(), nil), ledger.ProofOfWork{},
		zaptest.NewLogger(t).Sugar())
	mn := New(chain, zaptest.NewLogger(t).Sugar())
	require.NoError(t, mn.Initialize(t.Context()))

	ok, err := mn.Mine(t.Context(), "alice", "msg")
	require.NoError(t, err)
	require.True(t, ok)
}
