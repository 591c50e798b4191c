package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSkipPartition_Error tests skip message formatting
func TestSkipPartition_Error(t *testing.T) {
	skip := &SkipPartition{Stream: "list_members", Reason: "job timed out"}
	assert.Equal(t, "domain: skipping partition of list_members: job timed out", skip.Error())

	withCause := &SkipPartition{Stream: "blasts", Reason: "request failed", Err: errors.New("connection reset")}
	assert.Contains(t, withCause.Error(), "connection reset")
}

// TestSkipPartition_Unwrap tests cause propagation
func TestSkipPartition_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	skip := &SkipPartition{Stream: "lists", Reason: "fetch failed", Err: cause}

	assert.ErrorIs(t, skip, cause)
}

// TestAsSkip tests extraction from wrapped chains
func TestAsSkip(t *testing.T) {
	skip := &SkipPartition{Stream: "lists", Reason: "rejected"}
	wrapped := fmt.Errorf("records: %w", skip)

	got, ok := AsSkip(wrapped)
	require.True(t, ok)
	assert.Equal(t, "lists", got.Stream)

	_, ok = AsSkip(errors.New("plain"))
	assert.False(t, ok)

	_, ok = AsSkip(nil)
	assert.False(t, ok)
}

// TestOutOfOrderError tests diagnostic formatting and detection
func TestOutOfOrderError(t *testing.T) {
	ctx := NewPartition()
	ctx.Set("list_name", "weekly")

	err := &OutOfOrderError{
		Stream:         "list_members",
		Partition:      ctx,
		StatePartition: ctx,
		StreamCount:    12,
		PartitionCount: 4,
		Previous:       "2023-02-01 00:00:00",
		Latest:         "2023-01-01 00:00:00",
	}

	msg := err.Error()
	assert.Contains(t, msg, "list_members")
	assert.Contains(t, msg, "12 stream records")
	assert.Contains(t, msg, "4 partition records")
	assert.Contains(t, msg, "2023-01-01 00:00:00")
	assert.Contains(t, msg, "weekly")

	assert.True(t, IsOutOfOrder(fmt.Errorf("sync: %w", err)))
	assert.False(t, IsOutOfOrder(errors.New("other")))
}

// TestRecordLimitError tests limit formatting and detection
func TestRecordLimitError(t *testing.T) {
	err := &RecordLimitError{Stream: "blast_repeats", Limit: 500}

	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "blast_repeats")

	assert.True(t, IsRecordLimit(fmt.Errorf("aborted: %w", err)))
	assert.False(t, IsRecordLimit(errors.New("other")))
}
