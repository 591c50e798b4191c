package sailthru

import (
	"context"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var accountsDef = domain.StreamDef{
	Name:        "accounts",
	Kind:        domain.StreamKindREST,
	PrimaryKeys: []string{"id"},
}

// accountsStream reads the account settings object as a single record.
type accountsStream struct {
	conn *Connector
}

func (s *accountsStream) Def() domain.StreamDef { return accountsDef }

func (s *accountsStream) Records(ctx context.Context, _ domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		resp, err := s.conn.client.Get(ctx, "settings", nil)
		if err != nil {
			yield(nil, skipOrFatal(accountsDef.Name, err))
			return
		}

		// Unnamed domain entries carry no information downstream.
		if domains, ok := resp["domains"].(map[string]any); ok {
			delete(domains, "")
		}

		record := domain.RecordFromMap(resp)
		record.Set("account_name", s.conn.settings.Account.AccountName)
		yield(record, nil)
	}
}

func (s *accountsStream) ChildContext(_ *domain.Record, prior domain.Partition) (domain.Partition, error) {
	return prior, nil
}
