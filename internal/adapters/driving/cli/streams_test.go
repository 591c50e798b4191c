package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windward-data/sailtap/internal/core/domain"
)

func setupStreamsTest(t *testing.T) {
	t.Helper()
	old := streamCatalog
	streamCatalog = &mockCatalog{streams: []*mockStream{
		{def: domain.StreamDef{
			Name:           "lists",
			Kind:           domain.StreamKindREST,
			PrimaryKeys:    []string{"list_id"},
			ReplicationKey: "create_time",
			Children:       []string{"list_members"},
		}},
		{def: domain.StreamDef{
			Name:           "list_members",
			Kind:           domain.StreamKindJob,
			PrimaryKeys:    []string{"Email Hash", "List Id"},
			ReplicationKey: "List Signup",
			Parent:         "lists",
		}},
	}}
	t.Cleanup(func() { streamCatalog = old })
}

func TestStreamsCmd_ListsCatalog(t *testing.T) {
	setupStreamsTest(t)

	out, err := execute("streams")

	assert.NoError(t, err)
	assert.Contains(t, out, "STREAM")
	assert.Contains(t, out, "lists")
	assert.Contains(t, out, "rest")
	assert.Contains(t, out, "list_members")
	assert.Contains(t, out, "job")
	assert.Contains(t, out, "Email Hash,List Id")
	assert.Contains(t, out, "List Signup")
}
