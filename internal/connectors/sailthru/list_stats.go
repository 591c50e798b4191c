package sailthru

import (
	"context"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var listStatsDef = domain.StreamDef{
	Name:        "list_stats",
	Kind:        domain.StreamKindREST,
	PrimaryKeys: []string{"list_id"},
	Parent:      "lists",
}

// listStatsStream reads the stat rollup for one list.
type listStatsStream struct {
	conn *Connector
}

func (s *listStatsStream) Def() domain.StreamDef { return listStatsDef }

func (s *listStatsStream) Records(ctx context.Context, partition domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		listName, ok := partition.Get("list_name")
		if !ok {
			yield(nil, &domain.SkipPartition{Stream: listStatsDef.Name, Reason: "partition has no list_name"})
			return
		}

		payload := map[string]any{
			"stat": "list",
			"list": listName,
		}
		resp, err := s.conn.client.Get(ctx, "stats", payload)
		if err != nil {
			yield(nil, skipOrFatal(listStatsDef.Name, err))
			return
		}

		record := domain.RecordFromMap(resp)
		pivotNested(record, "signup_month", "signup_month", "signup_month")
		pivotCounts(record, "source_count", "source", "count")
		if listID, ok := partition.Get("list_id"); ok {
			record.Set("list_id", listID)
		}
		record.Set("account_name", s.conn.settings.Account.AccountName)
		yield(record, nil)
	}
}

func (s *listStatsStream) ChildContext(_ *domain.Record, prior domain.Partition) (domain.Partition, error) {
	return prior, nil
}
