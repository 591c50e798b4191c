package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBookmark_Advance tests in-flight cursor updates
func TestBookmark_Advance(t *testing.T) {
	b := &Bookmark{}
	assert.Nil(t, b.Latest())
	assert.False(t, b.HasProgress())

	b.Advance("modify_time", "2023-01-02T00:00:00Z")

	assert.True(t, b.HasProgress())
	assert.Equal(t, "2023-01-02T00:00:00Z", b.Latest())
	// The finalized value stays untouched until Finalize.
	assert.Nil(t, b.ReplicationValue)
}

// TestBookmark_Finalize tests promoting progress to the finalized value
func TestBookmark_Finalize(t *testing.T) {
	b := &Bookmark{}
	b.Advance("modify_time", "2023-01-02T00:00:00Z")
	b.Advance("modify_time", "2023-01-03T00:00:00Z")

	b.Finalize()

	assert.False(t, b.HasProgress())
	assert.Equal(t, "modify_time", b.ReplicationKey)
	assert.Equal(t, "2023-01-03T00:00:00Z", b.ReplicationValue)
	assert.Equal(t, "2023-01-03T00:00:00Z", b.Latest())
}

// TestBookmark_Finalize_NoProgress tests that finalize without progress is a no-op
func TestBookmark_Finalize_NoProgress(t *testing.T) {
	b := &Bookmark{ReplicationKey: "modify_time", ReplicationValue: "2023-01-01T00:00:00Z"}
	b.Finalize()

	assert.Equal(t, "2023-01-01T00:00:00Z", b.ReplicationValue)
	assert.False(t, b.HasProgress())
}

// TestBookmark_Latest_PrefersProgress tests cursor precedence
func TestBookmark_Latest_PrefersProgress(t *testing.T) {
	b := &Bookmark{ReplicationValue: "2023-01-01T00:00:00Z"}
	assert.Equal(t, "2023-01-01T00:00:00Z", b.Latest())

	b.Advance("modify_time", "2023-02-01T00:00:00Z")
	assert.Equal(t, "2023-02-01T00:00:00Z", b.Latest())
}

// TestBookmark_WriteStarting tests the starting value marker
func TestBookmark_WriteStarting(t *testing.T) {
	fresh := &Bookmark{}
	fresh.WriteStarting("2020-01-01T00:00:00Z")
	assert.Equal(t, "2020-01-01T00:00:00Z", fresh.StartingValue)

	resumed := &Bookmark{ReplicationValue: "2023-06-01T00:00:00Z"}
	resumed.WriteStarting("2020-01-01T00:00:00Z")
	assert.Equal(t, "2023-06-01T00:00:00Z", resumed.StartingValue)
}

// TestState_Stream tests get-or-create stream state
func TestState_Stream(t *testing.T) {
	s := NewState()

	ss := s.Stream("lists")
	require.NotNil(t, ss)
	assert.Same(t, ss, s.Stream("lists"))
	assert.Len(t, s.Bookmarks, 1)

	s.Stream("blasts")
	assert.Len(t, s.Bookmarks, 2)
}

// TestStreamState_Partition tests get-or-create partition state
func TestStreamState_Partition(t *testing.T) {
	ss := &StreamState{}

	ctx := NewPartition()
	ctx.Set("list_name", "weekly")

	ps := ss.Partition(ctx)
	require.NotNil(t, ps)
	assert.Same(t, ps, ss.Partition(ctx))
	assert.Len(t, ss.Partitions, 1)

	other := NewPartition()
	other.Set("list_name", "daily")
	ss.Partition(other)
	assert.Len(t, ss.Partitions, 2)
}

// TestStreamState_FindPartition tests partition lookup
func TestStreamState_FindPartition(t *testing.T) {
	ss := &StreamState{}
	ctx := NewPartition()
	ctx.Set("blast_id", 42)
	ss.Partition(ctx)

	_, found := ss.FindPartition(ctx)
	assert.True(t, found)

	missing := NewPartition()
	missing.Set("blast_id", 99)
	_, found = ss.FindPartition(missing)
	assert.False(t, found)
}

// TestState_BookmarkFor_Root tests that root contexts use the stream bookmark
func TestState_BookmarkFor_Root(t *testing.T) {
	s := NewState()
	def := StreamDef{Name: "lists", Kind: StreamKindREST}

	b := s.BookmarkFor(def, NewPartition())
	b.Advance("modified", "2023-01-01T00:00:00Z")

	assert.True(t, s.Stream("lists").HasProgress())
	assert.Empty(t, s.Stream("lists").Partitions)
}

// TestState_BookmarkFor_Partitioned tests per-partition bookmarks
func TestState_BookmarkFor_Partitioned(t *testing.T) {
	s := NewState()
	def := StreamDef{Name: "list_members", Kind: StreamKindJob, Parent: "lists"}

	ctx := NewPartition()
	ctx.Set("list_name", "weekly")

	b := s.BookmarkFor(def, ctx)
	b.Advance("profile_modified_date", "2023-01-01T00:00:00Z")

	ss := s.Stream("list_members")
	assert.False(t, ss.Bookmark.HasProgress())
	require.Len(t, ss.Partitions, 1)
	assert.True(t, ss.Partitions[0].HasProgress())
}

// TestState_BookmarkFor_ProjectedToRoot tests collapsing partitions onto the stream bookmark
func TestState_BookmarkFor_ProjectedToRoot(t *testing.T) {
	s := NewState()
	def := StreamDef{
		Name:               "users",
		Kind:               StreamKindREST,
		Parent:             "list_members",
		StatePartitionKeys: []string{},
	}

	ctx := NewPartition()
	ctx.Set("user_id", "abc")

	b := s.BookmarkFor(def, ctx)
	b.Advance("profile_modified_date", "2023-01-01T00:00:00Z")

	ss := s.Stream("users")
	assert.True(t, ss.Bookmark.HasProgress())
	assert.Empty(t, ss.Partitions)
}

// TestState_JSONRoundTrip tests checkpoint serialization
func TestState_JSONRoundTrip(t *testing.T) {
	s := NewState()
	ss := s.Stream("blasts")
	ss.ReplicationKey = "modify_time"
	ss.ReplicationValue = "2023-01-01 00:00:00"

	ctx := NewPartition()
	ctx.Set("list_name", "weekly")
	ps := ss.Partition(ctx)
	ps.Advance("signup_time", "2023-02-01 00:00:00")

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))

	rss, ok := decoded.Bookmarks["blasts"]
	require.True(t, ok)
	assert.Equal(t, "modify_time", rss.ReplicationKey)
	assert.Equal(t, "2023-01-01 00:00:00", rss.ReplicationValue)
	require.Len(t, rss.Partitions, 1)
	assert.Equal(t, "weekly", rss.Partitions[0].Context.GetString("list_name"))
	require.True(t, rss.Partitions[0].HasProgress())
	assert.Equal(t, "2023-02-01 00:00:00", rss.Partitions[0].Progress.ReplicationValue)
}

// TestState_JSON_OmitsEmpty tests that untouched fields stay out of checkpoints
func TestState_JSON_OmitsEmpty(t *testing.T) {
	s := NewState()
	s.Stream("lists")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bookmarks":{"lists":{}}}`, string(data))
}
