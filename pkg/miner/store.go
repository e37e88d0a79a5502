package miner

import (
	"context"
	"time"

	"github.com/ava-labs/britcoin/pkg/ledger"
	"github.com/ava-labs/britcoin/pkg/metrics"
)

type instrumentedStore struct {
	next    ledger.Store
	metrics *metrics.Metrics
}

// InstrumentStore records call counts and latency for every store operation.
func InstrumentStore(next ledger.Store, m *metrics.Metrics) ledger.Store {
	if m == nil {
		return next
	}
	return &instrumentedStore{next: next, metrics: m}
}

func (s *instrumentedStore) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	start := time.Now()
	records, err := s.next.LoadAll(ctx)
	s.metrics.RecordStoreCall(metrics.OpLoadAll, err, time.Since(start).Seconds())
	return records, err
}

func (s *instrumentedStore) Append(ctx context.Context, record ledger.Record) error {
	start := time.Now()
	err := s.next.Append(ctx, record)
	s.metrics.RecordStoreCall(metrics.OpAppend, err, time.Since(start).Seconds())
	return err
}
