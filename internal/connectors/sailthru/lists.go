package sailthru

import (
	"context"
	"fmt"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var listsDef = domain.StreamDef{
	Name:           "lists",
	Kind:           domain.StreamKindREST,
	PrimaryKeys:    []string{"list_id"},
	ReplicationKey: "create_time",
	Children:       []string{"list_stats", "list_members"},
}

// listsStream reads the account's primary lists.
type listsStream struct {
	conn *Connector
}

func (s *listsStream) Def() domain.StreamDef { return listsDef }

func (s *listsStream) Records(ctx context.Context, _ domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		resp, err := s.conn.client.Post(ctx, "list", map[string]any{"primary": 1})
		if err != nil {
			yield(nil, skipOrFatal(listsDef.Name, err))
			return
		}

		lists, _ := resp["lists"].([]any)
		for _, item := range lists {
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

// ChildContext scopes the list's stats and member exports. Each record
// replaces the accumulator wholesale.
func (s *listsStream) ChildContext(record *domain.Record, _ domain.Partition) (domain.Partition, error) {
	id, ok := record.Get("list_id")
	if !ok || id == nil {
		return domain.Partition{}, fmt.Errorf("sailthru: list record has no list_id")
	}
	name, ok := record.Get("name")
	if !ok || name == nil {
		return domain.Partition{}, fmt.Errorf("sailthru: list record has no name")
	}
	child := domain.NewPartition()
	child.Set("list_id", id)
	child.Set("list_name", name)
	return child, nil
}
