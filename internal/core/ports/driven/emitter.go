package driven

import "github.com/windward-data/sailtap/internal/core/domain"

// MessageWriter emits the extracted event stream for a downstream
// consumer. Records and state checkpoints interleave in emission order;
// a consumer persisting the latest state checkpoint can resume the run.
type MessageWriter interface {
	// WriteRecord emits one record event for the named stream.
	WriteRecord(stream string, record *domain.Record) error

	// WriteState emits a state checkpoint event.
	WriteState(state *domain.State) error

	// Flush forces buffered events out.
	Flush() error
}
