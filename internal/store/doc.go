// Package store provides file-based persistence for piqrypt's core data.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. All methods are concurrency-safe via
// internal locking. Stored files typically live under the user's configured
// home directory.
//
// The package includes:
//   - Identity keys, encrypted at rest with a passphrase (FileStore)
//   - Per-agent event chains (FileStore)
//   - Session audit exports at caller-chosen paths (FileStore)
package store
