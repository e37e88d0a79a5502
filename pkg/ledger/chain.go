package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Chain owns the ordered blocks of the ledger and the pending-transaction queue.
//
// All mutating operations are serialized by a single lock that is held across
// the whole read-latest, mutate-queue, append and persist sequence.
type Chain struct {
	mu             sync.Mutex
	store          Store
	pow            ProofOfWork
	log            *zap.SugaredLogger
	now            func() time.Time
	persistTimeout time.Duration

	blocks  []*Block
	pending []Transaction
}

// Option configures a Chain.
type Option func(*Chain)

// WithClock overrides the time source used for new blocks.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// WithPersistTimeout bounds every store append. Zero disables the bound.
func WithPersistTimeout(d time.Duration) Option {
	return func(c *Chain) { c.persistTimeout = d }
}

// NewChain creates an empty chain. Call Initialize before mining.
func NewChain(store Store, pow ProofOfWork, log *zap.SugaredLogger, opts ...Option) *Chain {
	c := &Chain{
		store: store,
		pow:   pow,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize loads the persisted blocks in the order the store returns them.
// When the store is empty a genesis block is built and persisted. Calling
// Initialize on an already initialized chain does nothing.
func (c *Chain) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) > 0 {
		return nil
	}

	blocks, err := LoadBlocks(ctx, c.store)
	if err != nil {
		return err
	}

	if len(blocks) == 0 {
		genesis := NewGenesisBlock(c.now())
		c.log.Infow("ledger is empty, creating genesis block", "hash", genesis.Hash())
		return c.append(ctx, genesis, true)
	}

	for _, b := range blocks {
		if err := c.append(ctx, b, false); err != nil {
			return err
		}
	}

	latest := c.blocks[len(c.blocks)-1]
	c.log.Infow("ledger loaded",
		"blocks", len(c.blocks),
		"latestIndex", latest.Index(),
		"latestHash", latest.Hash(),
	)
	return nil
}

// LatestBlock returns the last block of the chain.
func (c *Chain) LatestBlock() (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latestBlock()
}

func (c *Chain) latestBlock() (*Block, error) {
	if len(c.blocks) == 0 {
		return nil, ErrEmptyChain
	}
	return c.blocks[len(c.blocks)-1], nil
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

// Blocks returns a snapshot of the chain.
func (c *Chain) Blocks() []*Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.blocks)
}

// Pending returns a copy of the pending-transaction queue.
func (c *Chain) Pending() []Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending)
}

// Mine attempts to mine a block with message on behalf of contributor and
// reports whether a proof was found. When the block was mined but could not be
// persisted, Mine returns true together with an error wrapping ErrPersistence.
func (c *Chain) Mine(ctx context.Context, contributor, message string) (bool, error) {
	b, err := c.MineBlock(ctx, contributor, message)
	return b != nil, err
}

// MineBlock is Mine returning the mined block, or nil when the message does not
// meet the difficulty. A failed attempt leaves the chain and the pending queue
// untouched.
func (c *Chain) MineBlock(ctx context.Context, contributor, message string) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, err := c.latestBlock()
	if err != nil {
		return nil, err
	}

	proof, ok := c.pow.Search(last.Hash(), message)
	if !ok {
		return nil, nil
	}

	// JSON cannot carry invalid UTF-8 unchanged, so the stored name must
	// already be valid for the persisted hash to recompute
	contributor = strings.ToValidUTF8(contributor, "\uFFFD")
	c.pending = append(c.pending, Transaction{From: NetworkIssuer, To: contributor, Amount: 1})
	data := MinedData{
		ProofOfWork:  proof,
		Transactions: slices.Clone(c.pending),
	}
	c.pending = c.pending[:0]

	mined := NewBlock(last.Index()+1, c.now(), data, last.Hash())
	if err := c.append(ctx, mined, true); err != nil {
		return mined, err
	}

	c.log.Debugw("block mined",
		"index", mined.Index(),
		"hash", mined.Hash(),
		"contributor", contributor,
	)
	return mined, nil
}

// append adds b to the chain and, when persist is set, writes it to the store
// afterwards. A store failure leaves b in the chain.
func (c *Chain) append(ctx context.Context, b *Block, persist bool) error {
	c.blocks = append(c.blocks, b)
	if !persist {
		return nil
	}

	if c.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.persistTimeout)
		defer cancel()
	}

	if err := c.store.Append(ctx, b.Record()); err != nil {
		c.log.Errorw("block appended in memory but not persisted",
			"index", b.Index(),
			"hash", b.Hash(),
			"error", err,
		)
		return fmt.Errorf("%w %d: %w", ErrPersistence, b.Index(), err)
	}
	return nil
}
