// Package domain defines the core business entities for sailtap.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - StreamDef: An extractable resource and its replication contract
//   - Record: An ordered field mapping produced by extraction
//   - Partition: The context scoping one independently-checkpointed sync unit
//   - State: Per-partition bookmarks with in-flight progress markers
//   - Settings: Runtime configuration shared by all layers
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
