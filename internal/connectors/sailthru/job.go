package sailthru

import (
	"context"
	"fmt"
	"time"

	"github.com/windward-data/sailtap/internal/logger"
)

// Job statuses reported by the poll endpoint.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusExpired    = "expired"
)

// JobSpec describes one export job submission.
type JobSpec struct {
	// Type is the job type, e.g. "export_list_data" or "blast_query".
	Type string

	// Params are the resource-specific job parameters.
	Params map[string]any
}

// Job is one server-side export task. Created per partition sync of a
// job-backed stream and discarded once its export file is consumed.
type Job struct {
	ID        string
	Status    string
	ExportURL string
}

// JobManager submits export jobs and polls them to completion.
type JobManager struct {
	client       *Client
	pollInterval time.Duration
	timeout      time.Duration
}

// NewJobManager creates a job manager polling every pollInterval with
// the given wall-clock completion budget.
func NewJobManager(client *Client, pollInterval, timeout time.Duration) *JobManager {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	return &JobManager{client: client, pollInterval: pollInterval, timeout: timeout}
}

// SubmitJob issues the export request. A rejected submission surfaces
// as an *APIError; the caller decides whether that skips the partition.
func (m *JobManager) SubmitJob(ctx context.Context, spec JobSpec) (*Job, error) {
	payload := map[string]any{"job": spec.Type}
	for k, v := range spec.Params {
		payload[k] = v
	}

	resp, err := m.client.Post(ctx, "job", payload)
	if err != nil {
		if IsRemoteRejected(err) {
			logger.Warn("Job %s rejected: %v", spec.Type, err)
		}
		return nil, err
	}

	id := stringField(resp, "job_id")
	if id == "" {
		return nil, fmt.Errorf("sailthru: job %s submission returned no job_id", spec.Type)
	}
	status := stringField(resp, "status")
	if status == "" {
		status = JobStatusPending
	}
	logger.Info("Submitted %s job %s", spec.Type, id)
	return &Job{ID: id, Status: status}, nil
}

// AwaitExport polls the job until it completes, returning the export
// location. The timeout clock starts at the first poll; exceeding it
// fails with ErrJobTimeout. Connection-level poll failures propagate
// as-is so the caller can classify them as transient.
func (m *JobManager) AwaitExport(ctx context.Context, jobID string) (string, error) {
	start := time.Now()
	status := "unknown"

	for {
		resp, err := m.client.Get(ctx, "job", map[string]any{"job_id": jobID})
		if err != nil {
			return "", fmt.Errorf("poll job %s: %w", jobID, err)
		}

		status = stringField(resp, "status")
		logger.Info("Job %s status: %s", jobID, status)

		switch status {
		case JobStatusCompleted:
			exportURL := stringField(resp, "export_url")
			if exportURL == "" {
				return "", fmt.Errorf("%w: job %s", ErrMissingExportURL, jobID)
			}
			return exportURL, nil
		case JobStatusFailed, JobStatusExpired:
			return "", fmt.Errorf("%w: job %s reported %s", ErrJobFailed, jobID, status)
		}

		if time.Since(start) > m.timeout {
			logger.Error("Job %s timed out after %s, last status %s", jobID, m.timeout, status)
			return "", fmt.Errorf("%w: job %s after %s, last status %s", ErrJobTimeout, jobID, m.timeout, status)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}

// stringField reads a response field as a string, tolerating numeric
// job identifiers.
func stringField(body map[string]any, key string) string {
	v, ok := body[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
