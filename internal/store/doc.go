// Package store provides file-based persistence for the engine's local
// state.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. All methods are concurrency-safe via
// internal locking, and writes go through a temp file + rename so a crash
// never leaves a half-written file. Stored files live under the configured
// home directory.
//
// The package includes stores for:
//   - Identity keys and Noise keypairs, encrypted at rest (IdentityFileStore,
//     KeypairFileStore)
//   - Payment requests and subscription proposals (RequestFileStore)
//   - The discovery dedupe set (SeenFileStore)
//   - Auto-pay policy, rules, limits and history (PolicyFileStore)
//   - Known peers (PeerFileStore)
//   - Pending cross-process correlations (PendingFileStore)
package store
