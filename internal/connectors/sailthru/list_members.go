package sailthru

import (
	"context"
	"fmt"
	"iter"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var listMembersDef = domain.StreamDef{
	Name:              "list_members",
	Kind:              domain.StreamKindJob,
	PrimaryKeys:       []string{"Email Hash", "List Id"},
	ReplicationKey:    "List Signup",
	Parent:            "lists",
	Children:          []string{"users"},
	SelectiveChildren: true,
}

// memberColumns are the export columns kept as first-class fields.
// Every other column is an account-defined custom var and folds into
// the custom_vars array.
var memberColumns = map[string]bool{
	"Profile Id":           true,
	"Email Hash":           true,
	"List Id":              true,
	"List Name":            true,
	"List Signup":          true,
	"List Status":          true,
	"Email":                true,
	"Domain":               true,
	"Account Name":         true,
	"Opt Time":             true,
	"Engagement":           true,
	"Signup Date":          true,
	"Profile Created Date": true,
	"list_signup":          true,
	"profile_created_date": true,
	"signup_date":          true,
}

// listMembersStream exports one list's membership through the
// export_list_data job. It is the selective parent of users: only
// members with a fresh signup cascade into a profile sync.
type listMembersStream struct {
	conn *Connector
}

func (s *listMembersStream) Def() domain.StreamDef { return listMembersDef }

func (s *listMembersStream) Records(ctx context.Context, partition domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		listName, ok := partition.Get("list_name")
		if !ok {
			yield(nil, &domain.SkipPartition{Stream: listMembersDef.Name, Reason: "partition has no list_name"})
			return
		}

		spec := JobSpec{
			Type:   "export_list_data",
			Params: map[string]any{"list": listName},
		}
		inject := domain.NewPartition()
		inject.Set("List Name", listName)
		if listID, ok := partition.Get("list_id"); ok {
			inject.Set("List Id", listID)
		}
		inject.Set("Account Name", s.conn.settings.Account.AccountName)

		for record, err := range s.conn.jobRecords(ctx, listMembersDef.Name, spec, inject, foldCustomVars) {
			if !yield(record, err) {
				return
			}
		}
	}
}

// foldCustomVars rebuilds a member row keeping the known columns and
// collecting everything else into custom_vars, values stringified.
func foldCustomVars(record *domain.Record) *domain.Record {
	out := domain.NewRecord()
	customVars := make([]any, 0)
	for _, field := range record.Fields() {
		value, _ := record.Get(field)
		if memberColumns[field] {
			out.Set(field, value)
			continue
		}
		customVars = append(customVars, map[string]any{
			"var_name":  field,
			"var_value": record.GetString(field),
		})
	}
	out.Set("custom_vars", customVars)
	return out
}

// ChildContext scopes the member's profile sync. The list name falls
// back through the export's two header spellings and is omitted when
// neither is present.
func (s *listMembersStream) ChildContext(record *domain.Record, _ domain.Partition) (domain.Partition, error) {
	listID, ok := record.Get("List Id")
	if !ok {
		return domain.Partition{}, fmt.Errorf("sailthru: member record has no List Id")
	}
	userID, ok := record.Get("Profile Id")
	if !ok {
		return domain.Partition{}, fmt.Errorf("sailthru: member record has no Profile Id")
	}
	child := domain.NewPartition()
	child.Set("list_id", listID)
	child.Set("user_id", userID)
	if name, ok := record.Get("List Name"); ok {
		child.Set("list_name", name)
	} else if name, ok := record.Get("Name"); ok {
		child.Set("list_name", name)
	}
	return child, nil
}
