package driven

import (
	"context"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

// Stream is one extractable resource wired to the platform API.
// Each resource (lists, blasts, list members, etc.) implements this
// interface; the sync engine stays ignorant of how records are fetched.
type Stream interface {
	// Def returns the immutable stream definition.
	Def() domain.StreamDef

	// Records yields the partition's records in replication-key order.
	// The sequence is single-use and stops after yielding its first
	// error. A *domain.SkipPartition error means this partition must
	// be abandoned without failing the run; any other error is fatal.
	Records(ctx context.Context, partition domain.Partition) iter.Seq2[*domain.Record, error]

	// ChildContext derives the partition a child stream syncs under,
	// folding record into the running accumulator prior. An error
	// means the record cannot scope a child sync; the caller skips
	// that child invocation only.
	ChildContext(record *domain.Record, prior domain.Partition) (domain.Partition, error)
}

// Catalog resolves the configured streams.
type Catalog interface {
	// Stream returns the named stream.
	// Returns domain.ErrStreamUnknown for names not in the catalog.
	Stream(name string) (Stream, error)

	// Names returns all stream names in catalog order.
	Names() []string

	// Roots returns the parentless streams in catalog order.
	Roots() []Stream
}
