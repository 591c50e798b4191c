package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStreamKind_IsValid tests kind validation
func TestStreamKind_IsValid(t *testing.T) {
	assert.True(t, StreamKindREST.IsValid())
	assert.True(t, StreamKindJob.IsValid())
	assert.False(t, StreamKind("batch").IsValid())
	assert.False(t, StreamKind("").IsValid())
}

// TestStreamDef_HasReplicationKey tests incremental detection
func TestStreamDef_HasReplicationKey(t *testing.T) {
	incremental := StreamDef{Name: "blasts", ReplicationKey: "modify_time"}
	fullTable := StreamDef{Name: "lists"}

	assert.True(t, incremental.HasReplicationKey())
	assert.False(t, fullTable.HasReplicationKey())
}

// TestStreamDef_IsRoot tests parent detection
func TestStreamDef_IsRoot(t *testing.T) {
	assert.True(t, StreamDef{Name: "lists"}.IsRoot())
	assert.False(t, StreamDef{Name: "list_members", Parent: "lists"}.IsRoot())
}

// TestStreamDef_StatePartition tests bookmark partition resolution
func TestStreamDef_StatePartition(t *testing.T) {
	ctx := NewPartition()
	ctx.Set("list_name", "weekly")
	ctx.Set("list_id", 7)

	// nil keeps the full context.
	full := StreamDef{Name: "list_members"}
	assert.Equal(t, ctx.Key(), full.StatePartition(ctx).Key())

	// A subset projects the context.
	narrowed := StreamDef{Name: "list_members", StatePartitionKeys: []string{"list_name"}}
	assert.Equal(t, []string{"list_name"}, narrowed.StatePartition(ctx).Keys())

	// An empty (non-nil) set collapses onto the root partition.
	collapsed := StreamDef{Name: "users", StatePartitionKeys: []string{}}
	assert.True(t, collapsed.StatePartition(ctx).IsRoot())
}
