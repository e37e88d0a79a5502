// Package ledger implements the britcoin ledger: an append-only chain of
// hash-linked blocks extended by a single-shot proof-of-work check and a
// pending-transaction queue, backed by a durable Store.
//
// Main components
//   - Hasher: HashBlock computes a SHA-256 digest over a canonical rendering of
//     (index, timestamp, data, previous_hash). Each field is length-prefixed so
//     adjacent fields can never be confused, the timestamp is rendered in UTC
//     RFC3339Nano and the data is rendered as JSON with a fixed key order.
//   - Block: an immutable link in the chain. NewBlock freezes the hash at
//     construction; RestoreBlock rebuilds a block from a persisted Record and
//     trusts the stored hash.
//   - ProofOfWork: Search hashes previous_hash||message once and accepts the
//     digest when it starts with Difficulty '0' characters. There is no nonce
//     iteration; a message either meets the target or it does not.
//   - Store: the persistence boundary. LoadAll returns records ordered by index
//     ascending and Append durably writes one record.
//   - Chain: owns the blocks and the pending-transaction queue. It creates the
//     genesis block on an empty store, reloads persisted blocks otherwise, and
//     serializes mining under a single lock.
//
// # Lifecycle
//
// A Chain starts Empty and becomes Active exactly once, either by loading at
// least one persisted block or by persisting a freshly built genesis block.
// Mining is only possible while Active.
//
// # Durability
//
// Mined blocks are appended in memory before they are persisted. When the
// Store rejects a block the in-memory chain keeps it and Mine reports
// ErrPersistence; a restart reloads the durable state and the block is lost.
package ledger
