package sailthru

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/core/ports/driven"
)

// Ensure Catalog implements the interface.
var _ driven.Catalog = (*Catalog)(nil)

// Connector bundles the API client with the three record acquisition
// components the streams share.
type Connector struct {
	client    *Client
	jobs      *JobManager
	decoder   *Decoder
	paginator *Paginator
	settings  domain.Settings
}

// NewConnector creates a connector from the account settings.
func NewConnector(settings domain.Settings) *Connector {
	// Export downloads stream large bodies, so their client carries no
	// overall timeout.
	return NewConnectorWithHTTPClients(settings, nil, &http.Client{})
}

// NewConnectorWithHTTPClients creates a connector with custom HTTP
// clients for the API and for export downloads. Tests inject fake
// round trippers here.
func NewConnectorWithHTTPClients(settings domain.Settings, apiClient, exportClient *http.Client) *Connector {
	var client *Client
	if apiClient != nil {
		client = NewClientWithHTTPClient(settings, apiClient)
	} else {
		client = NewClient(settings)
	}
	return &Connector{
		client:    client,
		jobs:      NewJobManager(client, settings.Jobs.PollInterval, settings.Jobs.Timeout),
		decoder:   NewDecoder(exportClient, settings.Export.ChunkSize, settings.Account.UserAgent),
		paginator: NewPaginator(client),
		settings:  settings,
	}
}

// Client returns the underlying API client.
func (c *Connector) Client() *Client {
	return c.client
}

// jobRecords runs the job-export pipeline for one partition: submit,
// poll to completion, stream-decode the export. Submission rejections,
// job timeouts and connectivity failures become partition skips.
func (c *Connector) jobRecords(
	ctx context.Context, stream string, spec JobSpec, inject domain.Partition,
	reshape func(*domain.Record) *domain.Record,
) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		job, err := c.jobs.SubmitJob(ctx, spec)
		if err != nil {
			yield(nil, skipOrFatal(stream, err))
			return
		}
		exportURL, err := c.jobs.AwaitExport(ctx, job.ID)
		if err != nil {
			yield(nil, skipOrFatal(stream, err))
			return
		}
		for record, err := range c.decoder.StreamExport(ctx, exportURL, inject) {
			if err != nil {
				yield(nil, skipOrFatal(stream, err))
				return
			}
			if reshape != nil {
				record = reshape(record)
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// skipOrFatal classifies a fetch failure: platform rejections, job
// timeouts and connectivity failures abandon the partition, everything
// else fails the run. Pagination loops stay fatal.
func skipOrFatal(stream string, err error) error {
	if err == nil {
		return nil
	}
	if IsPaginationLoop(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case IsRemoteRejected(err):
		return &domain.SkipPartition{Stream: stream, Reason: "rejected by platform", Err: err}
	case IsJobTimeout(err):
		return &domain.SkipPartition{Stream: stream, Reason: "export job timed out", Err: err}
	case errors.Is(err, ErrJobFailed):
		return &domain.SkipPartition{Stream: stream, Reason: "export job failed", Err: err}
	case IsTransient(err):
		return &domain.SkipPartition{Stream: stream, Reason: "connection failure", Err: err}
	}
	return err
}

// Catalog is the full set of extractable streams, in sync order.
type Catalog struct {
	order   []string
	streams map[string]driven.Stream
}

// NewCatalog builds the stream catalog over the connector.
func NewCatalog(conn *Connector) *Catalog {
	c := &Catalog{streams: make(map[string]driven.Stream)}
	c.register(&accountsStream{conn: conn})
	c.register(&blastsStream{conn: conn})
	c.register(&blastStatsStream{conn: conn})
	c.register(&blastQueryStream{conn: conn})
	c.register(&listsStream{conn: conn})
	c.register(&listStatsStream{conn: conn})
	c.register(&listMembersStream{conn: conn})
	c.register(&usersStream{conn: conn})
	return c
}

func (c *Catalog) register(s driven.Stream) {
	name := s.Def().Name
	c.order = append(c.order, name)
	c.streams[name] = s
}

// Stream returns the named stream.
func (c *Catalog) Stream(name string) (driven.Stream, error) {
	s, ok := c.streams[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStreamUnknown, name)
	}
	return s, nil
}

// Names returns all stream names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Roots returns the parentless streams in catalog order.
func (c *Catalog) Roots() []driven.Stream {
	var roots []driven.Stream
	for _, name := range c.order {
		s := c.streams[name]
		if s.Def().IsRoot() {
			roots = append(roots, s)
		}
	}
	return roots
}
