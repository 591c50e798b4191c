package sailthru

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaginator(t *testing.T, responses ...fakeResponse) (*Paginator, *fakeTransport) {
	t.Helper()
	client, transport := newTestClient(t, responses...)
	return NewPaginator(client), transport
}

func collectPages(seq func(func(map[string]any, error) bool)) (records []map[string]any, err error) {
	for record, e := range seq {
		if e != nil {
			return records, e
		}
		records = append(records, record)
	}
	return records, nil
}

func TestFetchAll_SinglePage(t *testing.T) {
	p, _ := newTestPaginator(t,
		fakeResponse{body: `{"lists":[{"list_id":1},{"list_id":2}]}`},
	)

	records, err := collectPages(p.FetchAll(context.Background(), PageRequest{
		Action:     "list",
		RecordsKey: "lists",
	}))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, float64(1), records[0]["list_id"])
}

func TestFetchAll_FollowsNextToken(t *testing.T) {
	p, transport := newTestPaginator(t,
		fakeResponse{body: `{"items":[{"id":1}],"next":"t1"}`},
		fakeResponse{body: `{"items":[{"id":2}],"next":"t2"}`},
		fakeResponse{body: `{"items":[{"id":3}]}`},
	)

	records, err := collectPages(p.FetchAll(context.Background(), PageRequest{
		Action:       "activity",
		RecordsKey:   "items",
		NextTokenKey: "next",
	}))
	require.NoError(t, err)
	assert.Len(t, records, 3)
	require.Len(t, transport.requests, 3)

	// The second request carries page 1's token.
	payload := requestPayload(t, transport, 1)
	assert.Contains(t, payload, `"next":"t1"`)
}

func TestFetchAll_LoopDetection(t *testing.T) {
	// Page 2 returns the same token page 1 did: its records are
	// yielded, then the loop error fires before a third request.
	p, transport := newTestPaginator(t,
		fakeResponse{body: `{"items":[{"id":1}],"next":"t1"}`},
		fakeResponse{body: `{"items":[{"id":2}],"next":"t1"}`},
	)

	records, err := collectPages(p.FetchAll(context.Background(), PageRequest{
		Action:       "activity",
		RecordsKey:   "items",
		NextTokenKey: "next",
	}))
	require.Error(t, err)
	assert.True(t, IsPaginationLoop(err))
	assert.Contains(t, err.Error(), "t1")
	assert.Len(t, records, 2)
	assert.Len(t, transport.requests, 2)
}

func TestFetchAll_WholeResponseIsRecord(t *testing.T) {
	p, _ := newTestPaginator(t,
		fakeResponse{body: `{"email":"jane@example.test","engagement":"active"}`},
	)

	records, err := collectPages(p.FetchAll(context.Background(), PageRequest{
		Action: "user",
		Method: http.MethodPost,
	}))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "jane@example.test", records[0]["email"])
}

func TestFetchAll_TransientRetries(t *testing.T) {
	p, transport := newTestPaginator(t,
		fakeResponse{status: http.StatusServiceUnavailable, body: "down"},
		fakeResponse{body: `{"items":[{"id":1}]}`},
	)

	records, err := collectPages(p.FetchAll(context.Background(), PageRequest{
		Action:     "activity",
		RecordsKey: "items",
	}))
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, transport.requests, 2)
}

func TestFetchAll_RejectionAbandonsQuietly(t *testing.T) {
	// A platform rejection on page 2 abandons the loop: page 1's
	// records stand and no error reaches the consumer.
	p, _ := newTestPaginator(t,
		fakeResponse{body: `{"items":[{"id":1}],"next":"t1"}`},
		fakeResponse{body: `{"error":2,"errormsg":"invalid id"}`},
	)

	records, err := collectPages(p.FetchAll(context.Background(), PageRequest{
		Action:       "activity",
		RecordsKey:   "items",
		NextTokenKey: "next",
	}))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// requestPayload returns the json payload of the i-th captured
// request, wherever the method put it.
func requestPayload(t *testing.T, transport *fakeTransport, i int) string {
	t.Helper()
	req := transport.requests[i]
	if encoded := req.URL.Query().Get("json"); encoded != "" {
		return encoded
	}
	form, err := url.ParseQuery(transport.bodies[i])
	require.NoError(t, err)
	return form.Get("json")
}
