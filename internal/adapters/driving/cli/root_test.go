package cli

import (
	"bytes"
	"context"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/core/ports/driven"
	"github.com/windward-data/sailtap/internal/core/ports/driving"
)

// mockSyncRunner implements driving.SyncRunner for testing.
type mockSyncRunner struct {
	err    error
	status driving.SyncStatus
	names  []string
}

func (m *mockSyncRunner) Sync(_ context.Context, names []string) error {
	m.names = names
	return m.err
}

func (m *mockSyncRunner) Status() driving.SyncStatus {
	return m.status
}

// mockStream implements driven.Stream with a fixed definition and no
// records.
type mockStream struct {
	def domain.StreamDef
}

func (s *mockStream) Def() domain.StreamDef { return s.def }

func (s *mockStream) Records(_ context.Context, _ domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(func(*domain.Record, error) bool) {}
}

func (s *mockStream) ChildContext(_ *domain.Record, prior domain.Partition) (domain.Partition, error) {
	return prior, nil
}

// mockCatalog implements driven.Catalog over a fixed stream list.
type mockCatalog struct {
	streams []*mockStream
}

func (c *mockCatalog) Stream(name string) (driven.Stream, error) {
	for _, s := range c.streams {
		if s.def.Name == name {
			return s, nil
		}
	}
	return nil, domain.ErrStreamUnknown
}

func (c *mockCatalog) Names() []string {
	names := make([]string, len(c.streams))
	for i, s := range c.streams {
		names[i] = s.def.Name
	}
	return names
}

func (c *mockCatalog) Roots() []driven.Stream {
	var roots []driven.Stream
	for _, s := range c.streams {
		if s.def.IsRoot() {
			roots = append(roots, s)
		}
	}
	return roots
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
