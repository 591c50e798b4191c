package sailthru

import (
	"context"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var blastStatsDef = domain.StreamDef{
	Name:        "blast_stats",
	Kind:        domain.StreamKindREST,
	PrimaryKeys: []string{"blast_id"},
	Parent:      "blasts",
}

// blastStatsStream reads the stat rollup for one blast.
type blastStatsStream struct {
	conn *Connector
}

func (s *blastStatsStream) Def() domain.StreamDef { return blastStatsDef }

func (s *blastStatsStream) Records(ctx context.Context, partition domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		blastID, ok := partition.Get("blast_id")
		if !ok {
			yield(nil, &domain.SkipPartition{Stream: blastStatsDef.Name, Reason: "partition has no blast_id"})
			return
		}

		payload := map[string]any{
			"stat":           "blast",
			"blast_id":       blastID,
			"beacon_times":   1,
			"click_times":    1,
			"clickmap":       1,
			"domain":         1,
			"engagement":     1,
			"purchase_times": 1,
			"signup":         1,
			"subject":        1,
			"topusers":       1,
			"urls":           1,
			"banners":        1,
			"purchase_items": 1,
			"device":         1,
		}
		resp, err := s.conn.client.Get(ctx, "stats", payload)
		if err != nil {
			yield(nil, skipOrFatal(blastStatsDef.Name, err))
			return
		}

		record := domain.RecordFromMap(resp)
		pivotCounts(record, "beacon_times", "beacon_time", "count")
		pivotCounts(record, "click_times", "click_time", "count")
		pivotNested(record, "domain", "domain_stats", "domain")
		pivotValues(record, "signup")
		pivotNested(record, "subject", "subject", "subject")
		pivotNested(record, "urls", "urls", "url")
		pivotNested(record, "device", "device_stats", "device")
		record.Set("blast_id", blastID)
		record.Set("account_name", s.conn.settings.Account.AccountName)
		yield(record, nil)
	}
}

func (s *blastStatsStream) ChildContext(_ *domain.Record, prior domain.Partition) (domain.Partition, error) {
	return prior, nil
}
