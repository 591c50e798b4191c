package sailthru

import (
	"context"
	"iter"
	"net/http"

	"github.com/windward-data/sailtap/internal/logger"
)

const (
	// PageAttempts is how many times one page fetch is retried on
	// transient failure.
	PageAttempts = 5

	// PageBackoffMultiplier grows the delay between page retries.
	PageBackoffMultiplier = 4
)

// PageRequest describes a paginated REST read. The next-page token's
// field name and request parameter are resource-specific.
type PageRequest struct {
	// Action is the API action to call.
	Action string

	// Method is the HTTP method, GET by default.
	Method string

	// Params are the resource-specific filter parameters.
	Params map[string]any

	// RecordsKey is the response field holding the record collection.
	// Empty means the whole response body is a single record.
	RecordsKey string

	// NextTokenKey is the response field carrying the next-page token.
	// Empty disables pagination: the first page is the only page.
	NextTokenKey string

	// NextTokenParam is the request parameter the token feeds back
	// through. Defaults to NextTokenKey.
	NextTokenParam string
}

// Paginator drives synchronous multi-page REST reads.
type Paginator struct {
	client *Client
}

// NewPaginator creates a paginator over the client.
func NewPaginator(client *Client) *Paginator {
	return &Paginator{client: client}
}

// FetchAll lazily yields every record across all pages. Transient page
// failures retry with exponential backoff; a platform-side rejection
// abandons the remaining pages without erroring the records already
// yielded. A next-page token equal to the immediately prior token is a
// fatal PaginationLoopError.
func (p *Paginator) FetchAll(ctx context.Context, req PageRequest) iter.Seq2[map[string]any, error] {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	tokenParam := req.NextTokenParam
	if tokenParam == "" {
		tokenParam = req.NextTokenKey
	}

	return func(yield func(map[string]any, error) bool) {
		token := ""
		for {
			params := make(map[string]any, len(req.Params)+1)
			for k, v := range req.Params {
				params[k] = v
			}
			if token != "" {
				params[tokenParam] = token
			}

			resp, err := p.client.doWithRetry(ctx, method, req.Action, params, PageAttempts, PageBackoffMultiplier)
			if err != nil {
				if IsRemoteRejected(err) {
					logger.Warn("Abandoning %s page fetch: %v", req.Action, err)
					return
				}
				yield(nil, err)
				return
			}

			for _, record := range pageRecords(req, resp) {
				if !yield(record, nil) {
					return
				}
			}

			if req.NextTokenKey == "" {
				return
			}
			next := stringField(resp, req.NextTokenKey)
			if next == "" {
				return
			}
			if next == token {
				yield(nil, &PaginationLoopError{Action: req.Action, Token: next})
				return
			}
			token = next
		}
	}
}

// pageRecords extracts the record collection from one page.
func pageRecords(req PageRequest, resp map[string]any) []map[string]any {
	if req.RecordsKey == "" {
		return []map[string]any{resp}
	}
	raw, ok := resp[req.RecordsKey].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
