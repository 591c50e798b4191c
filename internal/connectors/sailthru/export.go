package sailthru

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/logger"
)

const (
	// DecodeAttempts is how many times a truncated export download is
	// restarted before the decoder settles for the partial result.
	DecodeAttempts = 3

	// DefaultChunkSize is the default streaming read buffer size.
	DefaultChunkSize = 1024
)

// Decoder streams a delimited export file into records. Export files
// are comma-delimited UTF-8 with a header row defining field names.
type Decoder struct {
	httpClient *http.Client
	chunkSize  int
	userAgent  string

	// retryInterval seeds the backoff between download attempts.
	retryInterval time.Duration
}

// NewDecoder creates a decoder reading through httpClient with the
// given buffer size.
func NewDecoder(httpClient *http.Client, chunkSize int, userAgent string) *Decoder {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Decoder{
		httpClient:    httpClient,
		chunkSize:     chunkSize,
		userAgent:     userAgent,
		retryInterval: time.Second,
	}
}

// StreamExport lazily decodes the export file at exportURL. Each data
// row zips against the header into a record preserving column order;
// inject pairs are applied afterwards and win on key collision, which
// callers rely on to attach parent identifiers.
//
// A download truncated mid-body restarts from scratch with exponential
// backoff, skipping rows already delivered so the consumer sees each
// row once. When retries run out the sequence ends cleanly: the
// partial result stands and no error is yielded.
func (d *Decoder) StreamExport(ctx context.Context, exportURL string, inject domain.Partition) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = d.retryInterval
		policy.Multiplier = 2
		policy.RandomizationFactor = 0
		policy.MaxElapsedTime = 0
		policy.Reset()

		yielded := 0
		for attempt := 0; attempt < DecodeAttempts; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(policy.NextBackOff()):
				}
			}

			stopped, err := d.readExport(ctx, exportURL, inject, &yielded, yield)
			if stopped || err == nil {
				return
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if !IsTransient(err) {
				yield(nil, err)
				return
			}
			logger.Warn("Export download interrupted after %d rows: %v", yielded, err)
		}
		logger.Warn("Export retries exhausted, stopping early after %d rows", yielded)
	}
}

// readExport runs one download attempt, resuming delivery after the
// rows prior attempts already yielded.
func (d *Decoder) readExport(
	ctx context.Context, exportURL string, inject domain.Partition,
	yielded *int, yield func(*domain.Record, error) bool,
) (stopped bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return false, err
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, &HTTPError{StatusCode: resp.StatusCode, Action: "export download"}
	}

	reader := csv.NewReader(bufio.NewReaderSize(resp.Body, d.chunkSize))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		row++
		if row <= *yielded {
			continue
		}

		record := domain.NewRecord()
		for i, name := range header {
			if i < len(fields) {
				record.Set(name, fields[i])
			}
		}
		for _, key := range inject.Keys() {
			value, _ := inject.Get(key)
			record.Set(key, value)
		}

		if !yield(record, nil) {
			return true, nil
		}
		*yielded++
	}
}
