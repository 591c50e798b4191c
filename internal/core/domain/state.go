package domain

// ProgressMarkers hold the in-flight replication cursor for a sync that
// has not yet completed. They are promoted into the bookmark proper
// only when the owning partition finishes cleanly.
type ProgressMarkers struct {
	ReplicationKey   string `json:"replication_key,omitempty"`
	ReplicationValue any    `json:"replication_key_value,omitempty"`
}

// Bookmark is the replication high-water mark for one partition of one
// stream, plus any in-flight progress markers.
type Bookmark struct {
	ReplicationKey   string           `json:"replication_key,omitempty"`
	ReplicationValue any              `json:"replication_key_value,omitempty"`
	StartingValue    any              `json:"starting_replication_value,omitempty"`
	Progress         *ProgressMarkers `json:"progress_markers,omitempty"`
}

// Latest returns the most recent replication value observed, preferring
// in-flight progress over the finalized value. Returns nil when the
// bookmark is untouched.
func (b *Bookmark) Latest() any {
	if b.Progress != nil && b.Progress.ReplicationValue != nil {
		return b.Progress.ReplicationValue
	}
	return b.ReplicationValue
}

// WriteStarting records the replication value a sync begins from, using
// fallback when no finalized value exists yet.
func (b *Bookmark) WriteStarting(fallback any) {
	if b.ReplicationValue != nil {
		b.StartingValue = b.ReplicationValue
		return
	}
	b.StartingValue = fallback
}

// Advance moves the in-flight cursor to value. Ordering is the caller's
// concern; Advance records whatever it is given.
func (b *Bookmark) Advance(key string, value any) {
	if b.Progress == nil {
		b.Progress = &ProgressMarkers{}
	}
	b.Progress.ReplicationKey = key
	b.Progress.ReplicationValue = value
}

// Finalize promotes the in-flight cursor into the finalized replication
// value and clears the progress markers. A bookmark with no progress is
// left unchanged.
func (b *Bookmark) Finalize() {
	if b.Progress == nil {
		return
	}
	if b.Progress.ReplicationValue != nil {
		b.ReplicationKey = b.Progress.ReplicationKey
		b.ReplicationValue = b.Progress.ReplicationValue
	}
	b.Progress = nil
}

// HasProgress reports whether unfinalized progress markers exist.
func (b *Bookmark) HasProgress() bool {
	return b.Progress != nil
}

// PartitionState is the bookmark for one partition, keyed by its
// context.
type PartitionState struct {
	Context Partition `json:"context"`
	Bookmark
}

// StreamState aggregates the stream-level bookmark and any per-partition
// bookmarks for one stream.
type StreamState struct {
	Bookmark
	Partitions []*PartitionState `json:"partitions,omitempty"`
}

// Partition returns the bookmark for ctx, creating it when absent.
func (ss *StreamState) Partition(ctx Partition) *PartitionState {
	if ps, ok := ss.FindPartition(ctx); ok {
		return ps
	}
	ps := &PartitionState{Context: ctx.Clone()}
	ss.Partitions = append(ss.Partitions, ps)
	return ps
}

// FindPartition returns the bookmark for ctx if one exists.
func (ss *StreamState) FindPartition(ctx Partition) (*PartitionState, bool) {
	key := ctx.Key()
	for _, ps := range ss.Partitions {
		if ps.Context.Key() == key {
			return ps, true
		}
	}
	return nil, false
}

// State is the full bookmark store for a sync run. The sync engine is
// its sole writer; adapters only serialize it.
type State struct {
	Bookmarks map[string]*StreamState `json:"bookmarks"`
}

// NewState returns an empty bookmark store.
func NewState() *State {
	return &State{Bookmarks: make(map[string]*StreamState)}
}

// Stream returns the state for the named stream, creating it when
// absent.
func (s *State) Stream(name string) *StreamState {
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]*StreamState)
	}
	ss, ok := s.Bookmarks[name]
	if !ok {
		ss = &StreamState{}
		s.Bookmarks[name] = ss
	}
	return ss
}

// BookmarkFor resolves the bookmark a (stream, context) pair reads and
// writes. Contexts that project onto the root partition share the
// stream-level bookmark; everything else gets a per-partition one.
func (s *State) BookmarkFor(def StreamDef, ctx Partition) *Bookmark {
	ss := s.Stream(def.Name)
	statePart := def.StatePartition(ctx)
	if statePart.IsRoot() {
		return &ss.Bookmark
	}
	return &ss.Partition(statePart).Bookmark
}
