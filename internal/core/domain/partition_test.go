package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPartition_SetGet tests basic key storage
func TestPartition_SetGet(t *testing.T) {
	p := NewPartition()
	p.Set("list_name", "engaged users")

	v, ok := p.Get("list_name")
	assert.True(t, ok)
	assert.Equal(t, "engaged users", v)

	_, ok = p.Get("blast_id")
	assert.False(t, ok)
}

// TestPartition_IsRoot tests root detection
func TestPartition_IsRoot(t *testing.T) {
	root := NewPartition()
	assert.True(t, root.IsRoot())

	scoped := NewPartition()
	scoped.Set("blast_id", 123)
	assert.False(t, scoped.IsRoot())
}

// TestPartition_Key tests the canonical serialized form
func TestPartition_Key(t *testing.T) {
	p := NewPartition()
	p.Set("list_name", "weekly")
	p.Set("list_id", 7)

	assert.Equal(t, `{"list_name":"weekly","list_id":7}`, p.Key())
	assert.Equal(t, `{}`, NewPartition().Key())
}

// TestPartition_Key_OrderSensitive tests that insertion order shapes the key
func TestPartition_Key_OrderSensitive(t *testing.T) {
	a := NewPartition()
	a.Set("x", 1)
	a.Set("y", 2)

	b := NewPartition()
	b.Set("y", 2)
	b.Set("x", 1)

	assert.NotEqual(t, a.Key(), b.Key())
}

// TestPartition_Equal tests partition equality
func TestPartition_Equal(t *testing.T) {
	a := NewPartition()
	a.Set("list_id", 7)

	b := NewPartition()
	b.Set("list_id", 7)

	c := NewPartition()
	c.Set("list_id", 8)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewPartition()))
}

// TestPartition_Project tests key projection
func TestPartition_Project(t *testing.T) {
	p := NewPartition()
	p.Set("list_name", "weekly")
	p.Set("batch", 3)

	narrowed := p.Project([]string{"list_name"})
	assert.Equal(t, []string{"list_name"}, narrowed.Keys())

	v, ok := narrowed.Get("list_name")
	assert.True(t, ok)
	assert.Equal(t, "weekly", v)

	// Projecting onto no keys yields the root partition.
	assert.True(t, p.Project([]string{}).IsRoot())

	// Keys absent from the partition are ignored.
	assert.True(t, p.Project([]string{"missing"}).IsRoot())
}

// TestPartition_Clone tests that clones are independent
func TestPartition_Clone(t *testing.T) {
	p := NewPartition()
	p.Set("id", 1)

	c := p.Clone()
	c.Set("id", 2)
	c.Set("extra", true)

	v, _ := p.Get("id")
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"id"}, p.Keys())
	assert.Equal(t, []string{"id", "extra"}, c.Keys())
}

// TestPartition_JSONRoundTrip tests order-preserving serialization
func TestPartition_JSONRoundTrip(t *testing.T) {
	p := NewPartition()
	p.Set("list_name", "weekly")
	p.Set("list_id", 7)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"list_name":"weekly","list_id":7}`, string(data))

	var decoded Partition
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"list_name", "list_id"}, decoded.Keys())
	assert.Equal(t, p.Key(), decoded.Key())
}

// TestPartition_UnmarshalJSON_Numbers tests numeric decoding
func TestPartition_UnmarshalJSON_Numbers(t *testing.T) {
	var p Partition
	require.NoError(t, json.Unmarshal([]byte(`{"int":42,"float":1.5}`), &p))

	i, ok := p.Get("int")
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	f, ok := p.Get("float")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)
}

// TestPartition_GetString tests string coercion
func TestPartition_GetString(t *testing.T) {
	p := NewPartition()
	p.Set("name", "daily")
	p.Set("id", 12)

	assert.Equal(t, "daily", p.GetString("name"))
	assert.Equal(t, "12", p.GetString("id"))
	assert.Equal(t, "", p.GetString("missing"))
}
