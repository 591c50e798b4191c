package sailthru

import (
	"context"
	"fmt"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var blastsDef = domain.StreamDef{
	Name:           "blasts",
	Kind:           domain.StreamKindREST,
	PrimaryKeys:    []string{"id"},
	ReplicationKey: "modify_time",
	Children:       []string{"blast_stats", "blast_query"},
}

// blastsStream reads sent campaign blasts.
type blastsStream struct {
	conn *Connector
}

func (s *blastsStream) Def() domain.StreamDef { return blastsDef }

func (s *blastsStream) Records(ctx context.Context, _ domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		payload := map[string]any{
			"status":     "sent",
			"limit":      0,
			"start_date": s.conn.settings.Sync.StartDate,
		}
		resp, err := s.conn.client.Post(ctx, "blast", payload)
		if err != nil {
			yield(nil, skipOrFatal(blastsDef.Name, err))
			return
		}

		blasts, _ := resp["blasts"].([]any)
		for _, item := range blasts {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			record := domain.RecordFromMap(m)
			record.Set("account_name", s.conn.settings.Account.AccountName)
			if !yield(record, nil) {
				return
			}
		}
	}
}

// ChildContext scopes the blast's stats and query exports. Each record
// replaces the accumulator wholesale.
func (s *blastsStream) ChildContext(record *domain.Record, _ domain.Partition) (domain.Partition, error) {
	id, ok := record.Get("blast_id")
	if !ok || id == nil {
		return domain.Partition{}, fmt.Errorf("sailthru: blast record has no blast_id")
	}
	child := domain.NewPartition()
	child.Set("blast_id", id)
	return child, nil
}
