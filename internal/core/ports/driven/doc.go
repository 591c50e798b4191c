// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the extractor to function:
//
//   - Stream: Yields one resource's records and derives child partitions
//   - Catalog: Resolves streams by name and owns their ordering
//   - MessageWriter: Emits record and state checkpoint events
//   - CheckpointStore: Persists bookmark state between runs
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
