package sailthru

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJobManager(t *testing.T, timeout time.Duration, responses ...fakeResponse) (*JobManager, *fakeTransport) {
	t.Helper()
	client, transport := newTestClient(t, responses...)
	return NewJobManager(client, time.Millisecond, timeout), transport
}

func TestSubmitJob(t *testing.T) {
	m, transport := newTestJobManager(t, time.Minute,
		fakeResponse{body: `{"job_id":"abc123","status":"pending"}`},
	)

	job, err := m.SubmitJob(context.Background(), JobSpec{
		Type:   "export_list_data",
		Params: map[string]any{"list": "newsletter"},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", job.ID)
	assert.Equal(t, JobStatusPending, job.Status)

	require.Len(t, transport.requests, 1)
	assert.Equal(t, http.MethodPost, transport.requests[0].Method)
	assert.Equal(t, "/job", transport.requests[0].URL.Path)
	assert.Contains(t, transport.bodies[0], "export_list_data")
}

func TestSubmitJob_Rejected(t *testing.T) {
	m, _ := newTestJobManager(t, time.Minute,
		fakeResponse{body: `{"error":99,"errormsg":"You may not export a blast that has been sent"}`},
	)

	_, err := m.SubmitJob(context.Background(), JobSpec{Type: "blast_query"})
	require.Error(t, err)
	assert.True(t, IsRemoteRejected(err))
}

func TestAwaitExport_CompletesAfterPolling(t *testing.T) {
	m, transport := newTestJobManager(t, time.Minute,
		fakeResponse{body: `{"status":"pending"}`},
		fakeResponse{body: `{"status":"processing"}`},
		fakeResponse{body: `{"status":"processing"}`},
		fakeResponse{body: `{"status":"completed","export_url":"https://exports.test/file.csv"}`},
	)

	exportURL, err := m.AwaitExport(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://exports.test/file.csv", exportURL)
	assert.Len(t, transport.requests, 4)
}

func TestAwaitExport_Timeout(t *testing.T) {
	// The status never reaches completed; a 1ns budget expires after
	// the first poll.
	m, _ := newTestJobManager(t, time.Nanosecond,
		fakeResponse{body: `{"status":"processing"}`},
	)

	_, err := m.AwaitExport(context.Background(), "abc123")
	require.Error(t, err)
	assert.True(t, IsJobTimeout(err))
	assert.Contains(t, err.Error(), "processing")
}

func TestAwaitExport_JobFailed(t *testing.T) {
	m, _ := newTestJobManager(t, time.Minute,
		fakeResponse{body: `{"status":"failed"}`},
	)

	_, err := m.AwaitExport(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrJobFailed)
}

func TestAwaitExport_MissingExportURL(t *testing.T) {
	m, _ := newTestJobManager(t, time.Minute,
		fakeResponse{body: `{"status":"completed"}`},
	)

	_, err := m.AwaitExport(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrMissingExportURL)
}

func TestAwaitExport_ConnectionErrorPropagates(t *testing.T) {
	m, _ := newTestJobManager(t, time.Minute,
		fakeResponse{err: &timeoutError{}},
	)

	_, err := m.AwaitExport(context.Background(), "abc123")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestAwaitExport_ContextCancelled(t *testing.T) {
	m, _ := newTestJobManager(t, time.Minute,
		fakeResponse{body: `{"status":"pending"}`},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.AwaitExport(ctx, "abc123")
	require.ErrorIs(t, err, context.Canceled)
}

// timeoutError satisfies net.Error for transient classification tests.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
