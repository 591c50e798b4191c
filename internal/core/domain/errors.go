package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the core.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("domain: not found")

	// ErrInvalidSettings indicates settings failed validation.
	ErrInvalidSettings = errors.New("domain: invalid settings")

	// ErrStreamUnknown indicates a stream name not present in the catalog.
	ErrStreamUnknown = errors.New("domain: unknown stream")
)

// SkipPartition signals that the current partition cannot be synced and
// should be abandoned without failing the run. It implements error so
// record sources can surface it through their normal error path.
type SkipPartition struct {
	// Stream is the affected stream name.
	Stream string

	// Reason describes why the partition was skipped.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *SkipPartition) Error() string {
	msg := fmt.Sprintf("domain: skipping partition of %s: %s", e.Stream, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SkipPartition) Unwrap() error {
	return e.Err
}

// AsSkip extracts a SkipPartition from an error chain.
func AsSkip(err error) (*SkipPartition, bool) {
	var skip *SkipPartition
	if errors.As(err, &skip) {
		return skip, true
	}
	return nil, false
}

// OutOfOrderError indicates a record's replication value regressed below
// the one before it. The sync aborts because emitted bookmarks would no
// longer be trustworthy.
type OutOfOrderError struct {
	// Stream is the stream that produced the regression.
	Stream string

	// Partition is the partition being synced.
	Partition Partition

	// StatePartition is the partition the bookmark lives under.
	StatePartition Partition

	// StreamCount is how many records the stream invocation had
	// processed when the regression surfaced.
	StreamCount int

	// PartitionCount is how many records the partition had processed.
	PartitionCount int

	// Previous is the latest replication value seen before the
	// offending record.
	Previous any

	// Latest is the offending record's replication value.
	Latest any
}

// Error implements the error interface.
func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf(
		"domain: out of order record in %s: after %d stream records and %d partition records, replication value %v sorts before %v (partition %s, state partition %s)",
		e.Stream, e.StreamCount, e.PartitionCount, e.Latest, e.Previous,
		e.Partition.Key(), e.StatePartition.Key(),
	)
}

// IsOutOfOrder reports whether the error chain contains an OutOfOrderError.
func IsOutOfOrder(err error) bool {
	var oo *OutOfOrderError
	return errors.As(err, &oo)
}

// RecordLimitError indicates the engine-wide record ceiling was reached.
// The sync aborts rather than silently under-reporting.
type RecordLimitError struct {
	// Stream is the stream that crossed the ceiling.
	Stream string

	// Limit is the configured maximum.
	Limit int
}

// Error implements the error interface.
func (e *RecordLimitError) Error() string {
	return fmt.Sprintf("domain: record limit of %d reached while syncing %s", e.Limit, e.Stream)
}

// IsRecordLimit reports whether the error chain contains a RecordLimitError.
func IsRecordLimit(err error) bool {
	var rl *RecordLimitError
	return errors.As(err, &rl)
}
