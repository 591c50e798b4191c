// Package singer emits the extracted event stream as Singer-style
// JSONL messages: RECORD events carrying row data and STATE events
// carrying the bookmark store.
package singer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.MessageWriter = (*Writer)(nil)

type recordMessage struct {
	Type          string         `json:"type"`
	Stream        string         `json:"stream"`
	Record        *domain.Record `json:"record"`
	TimeExtracted string         `json:"time_extracted"`
}

type stateMessage struct {
	Type  string        `json:"type"`
	Value *domain.State `json:"value"`
}

// Writer emits record and state messages as one JSON document per
// line. Output is buffered; the caller flushes at checkpoints and at
// the end of the run.
type Writer struct {
	mu  sync.Mutex
	out *bufio.Writer
	enc *json.Encoder
	now func() time.Time
}

// NewWriter creates a message writer over w, typically stdout.
func NewWriter(w io.Writer) *Writer {
	buffered := bufio.NewWriter(w)
	return &Writer{
		out: buffered,
		enc: json.NewEncoder(buffered),
		now: time.Now,
	}
}

// WriteRecord emits one RECORD message stamped with the extraction
// time.
func (w *Writer) WriteRecord(stream string, record *domain.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	msg := recordMessage{
		Type:          "RECORD",
		Stream:        stream,
		Record:        record,
		TimeExtracted: w.now().UTC().Format(time.RFC3339Nano),
	}
	if err := w.enc.Encode(msg); err != nil {
		return fmt.Errorf("write record message: %w", err)
	}
	return nil
}

// WriteState emits one STATE message carrying the full bookmark store.
func (w *Writer) WriteState(state *domain.State) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(stateMessage{Type: "STATE", Value: state}); err != nil {
		return fmt.Errorf("write state message: %w", err)
	}
	return nil
}

// Flush forces buffered messages out.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Flush()
}
