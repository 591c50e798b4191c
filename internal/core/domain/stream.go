package domain

// StreamKind identifies how a stream's records are obtained.
type StreamKind string

// Available stream kinds.
const (
	// StreamKindREST reads records from synchronous, possibly paginated
	// REST endpoints.
	StreamKindREST StreamKind = "rest"

	// StreamKindJob submits an asynchronous export job, polls it to
	// completion and decodes the exported file.
	StreamKindJob StreamKind = "job"
)

// IsValid returns true if the stream kind is recognised.
func (k StreamKind) IsValid() bool {
	switch k {
	case StreamKindREST, StreamKindJob:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k StreamKind) String() string {
	return string(k)
}

// StreamDef describes an extractable resource and its replication
// contract. Definitions are immutable and fixed at startup.
type StreamDef struct {
	// Name is the stream identifier used in RECORD events and bookmarks.
	Name string

	// Kind selects the record acquisition path.
	Kind StreamKind

	// PrimaryKeys are the fields identifying one entity.
	PrimaryKeys []string

	// ReplicationKey is the field ordering records within a partition.
	// Empty for full-table streams.
	ReplicationKey string

	// Parent is the parent stream name. Empty for root streams; a
	// non-root stream is synced once per partition derived from its
	// parent's records.
	Parent string

	// Children are child stream names, synced in order for each parent
	// record's derived partition.
	Children []string

	// SelectiveChildren gates the child cascade on the per-record
	// signup timestamp being after the engine's cutoff threshold.
	// When false, children sync for every record.
	SelectiveChildren bool

	// StatePartitionKeys projects a partition onto a subset of its keys
	// for bookmark purposes. nil keeps the full partition. A non-nil
	// empty slice collapses all partitions onto the stream-level
	// bookmark, which therefore is never finalized per-partition.
	StatePartitionKeys []string
}

// HasReplicationKey reports whether the stream replicates incrementally.
func (d StreamDef) HasReplicationKey() bool {
	return d.ReplicationKey != ""
}

// IsRoot reports whether the stream has no parent.
func (d StreamDef) IsRoot() bool {
	return d.Parent == ""
}

// StatePartition returns the partition the bookmark for ctx lives
// under, applying StatePartitionKeys when set.
func (d StreamDef) StatePartition(ctx Partition) Partition {
	if d.StatePartitionKeys == nil {
		return ctx
	}
	return ctx.Project(d.StatePartitionKeys)
}
