package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidChain is returned by Verify when the blocks do not form a valid chain.
var ErrInvalidChain = errors.New("invalid chain")

// Verify checks a loaded or mined sequence of blocks: indices are contiguous
// from 0, the genesis block points at GenesisPreviousHash, every block links to
// its predecessor's hash and every stored hash matches the recomputed one.
func Verify(blocks []*Block) error {
	for i, b := range blocks {
		if b.Index() != uint64(i) {
			return fmt.Errorf("%w: block at position %d has index %d", ErrInvalidChain, i, b.Index())
		}
		if i == 0 {
			if b.PreviousHash() != GenesisPreviousHash {
				return fmt.Errorf("%w: genesis previous hash is %q", ErrInvalidChain, b.PreviousHash())
			}
		} else if prev := blocks[i-1]; b.PreviousHash() != prev.Hash() {
			return fmt.Errorf("%w: block %d previous hash %s does not match block %d hash %s",
				ErrInvalidChain, b.Index(), b.PreviousHash(), prev.Index(), prev.Hash())
		}
		if got := HashBlock(b.Index(), b.Timestamp(), b.data, b.PreviousHash()); got != b.Hash() {
			return fmt.Errorf("%w: block %d stored hash %s, computed %s", ErrInvalidChain, b.Index(), b.Hash(), got)
		}
	}
	return nil
}
