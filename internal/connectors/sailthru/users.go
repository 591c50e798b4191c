package sailthru

import (
	"context"
	"iter"
	"net/http"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var usersDef = domain.StreamDef{
	Name:        "users",
	Kind:        domain.StreamKindREST,
	PrimaryKeys: []string{"email"},
	Parent:      "list_members",

	// User profiles bookmark at the stream level, not per member.
	StatePartitionKeys: []string{},
}

// usersStream reads one member's full profile. The user endpoint is
// single-page in practice but goes through the paginator so loop
// detection stays armed if the platform ever pages it.
type usersStream struct {
	conn *Connector
}

func (s *usersStream) Def() domain.StreamDef { return usersDef }

func (s *usersStream) Records(ctx context.Context, partition domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		userID, ok := partition.Get("user_id")
		if !ok {
			yield(nil, &domain.SkipPartition{Stream: usersDef.Name, Reason: "partition has no user_id"})
			return
		}

		req := PageRequest{
			Action: "user",
			Method: http.MethodPost,
			Params: map[string]any{
				"id":  userID,
				"key": "sid",
				"fields": map[string]any{
					"activity":            1,
					"device":              1,
					"engagement":          1,
					"keys":                1,
					"lifetime":            1,
					"lists":               1,
					"optout_email":        1,
					"purchase_incomplete": 1,
					"purchases":           1,
					"smart_lists":         1,
					"vars":                1,
				},
			},
		}

		for row, err := range s.conn.paginator.FetchAll(ctx, req) {
			if err != nil {
				yield(nil, skipOrFatal(usersDef.Name, err))
				return
			}
			record := domain.RecordFromMap(row)
			pivotCounts(record, "lists", "list_name", "signup_time")
			if !yield(record, nil) {
				return
			}
		}
	}
}

func (s *usersStream) ChildContext(_ *domain.Record, prior domain.Partition) (domain.Partition, error) {
	return prior, nil
}
