package sailthru

import (
	"context"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var blastQueryDef = domain.StreamDef{
	Name:           "blast_query",
	Kind:           domain.StreamKindJob,
	PrimaryKeys:    []string{"job_id"},
	ReplicationKey: "send_time",
	Parent:         "blasts",
}

// blastQueryStream exports per-recipient blast activity through the
// blast_query job.
type blastQueryStream struct {
	conn *Connector
}

func (s *blastQueryStream) Def() domain.StreamDef { return blastQueryDef }

func (s *blastQueryStream) Records(ctx context.Context, partition domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		blastID, ok := partition.Get("blast_id")
		if !ok {
			yield(nil, &domain.SkipPartition{Stream: blastQueryDef.Name, Reason: "partition has no blast_id"})
			return
		}

		spec := JobSpec{
			Type:   "blast_query",
			Params: map[string]any{"blast_id": blastID},
		}
		inject := domain.NewPartition()
		inject.Set("blast_id", blastID)
		inject.Set("account_name", s.conn.settings.Account.AccountName)

		for record, err := range s.conn.jobRecords(ctx, blastQueryDef.Name, spec, inject, nil) {
			if !yield(record, err) {
				return
			}
		}
	}
}

func (s *blastQueryStream) ChildContext(_ *domain.Record, prior domain.Partition) (domain.Partition, error) {
	return prior, nil
}
