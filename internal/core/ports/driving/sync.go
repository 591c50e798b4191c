package driving

import "context"

// SyncRunner coordinates record extraction across streams.
type SyncRunner interface {
	// Sync runs extraction for the named streams and their children,
	// or for every stream when names is empty. Blocks until the run
	// finishes or fails.
	Sync(ctx context.Context, names []string) error

	// Status returns progress counters. Safe to call from another
	// goroutine while Sync runs.
	Status() SyncStatus
}

// SyncStatus is a snapshot of a sync run's progress.
type SyncStatus struct {
	// Running indicates if a sync is currently in progress.
	Running bool

	// CurrentStream is the stream being synced right now.
	CurrentStream string

	// Records is the count of record events emitted.
	Records int

	// Checkpoints is the count of state checkpoint events emitted.
	Checkpoints int

	// SkippedPartitions is the count of partitions abandoned after
	// non-fatal failures.
	SkippedPartitions int
}
