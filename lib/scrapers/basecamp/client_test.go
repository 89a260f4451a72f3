package basecamp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSessionSource struct {
	mu           sync.Mutex
	token        string
	sessionCalls int
	invalidated  int
}

func (f *fakeSessionSource) Session(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionCalls++
	return Session{
		Cookies:   []*http.Cookie{{Name: "sid", Value: f.token}},
		UserAgent: "test-agent",
	}, nil
}

func (f *fakeSessionSource) InvalidateSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.token = "fresh"
	return nil
}

func testClient(t *testing.T, baseUrl string, source SessionSource) *Client {
	t.Helper()
	return NewClient(ClientOptions{
		BaseUrl:           baseUrl,
		MaxAttempts:       3,
		BackoffInitial:    time.Millisecond,
		RequestsPerSecond: 1000,
	}, source)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"clubs":[]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL, &fakeSessionSource{token: "ok"})
	_, err := client.Fetch(context.Background(), ResourceProfile, map[string]string{"user": "u1"})
	require.NoError(t, err)
	require.EqualValues(t, 3, hits.Load())
}

func TestFetchSurfacesTransientAfterBudget(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server.URL, &fakeSessionSource{token: "ok"})
	_, err := client.Fetch(context.Background(), ResourceProfile, map[string]string{"user": "u1"})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, KindTransient, reqErr.Kind)
	require.EqualValues(t, 3, hits.Load())
}

func TestFetchDoesNotRetryRejected(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL, &fakeSessionSource{token: "ok"})
	_, err := client.Fetch(context.Background(), ResourceProfile, map[string]string{"user": "u1"})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, KindRejected, reqErr.Kind)
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchRefreshesSessionOnceOnUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("sid")
		if err != nil || cookie.Value != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"clubs":[]}`)
	}))
	defer server.Close()

	source := &fakeSessionSource{token: "stale"}
	client := testClient(t, server.URL, source)

	_, err := client.Fetch(context.Background(), ResourceProfile, map[string]string{"user": "u1"})
	require.NoError(t, err)
	require.Equal(t, 1, source.invalidated)
	require.Equal(t, 2, source.sessionCalls)
}

func TestFetchFailsWhenFreshSessionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := &fakeSessionSource{token: "stale"}
	client := testClient(t, server.URL, source)

	_, err := client.Fetch(context.Background(), ResourceProfile, map[string]string{"user": "u1"})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, KindUnauthorized, reqErr.Kind)
	// exactly one refresh cycle, the second rejection is fatal
	require.Equal(t, 1, source.invalidated)
}

func TestFetchPaginatedFollowsNextLinks(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprintf(w, `{
				"next": "%s/api/bcm/progress/?club=c1&page=2",
				"results": [{"path_name": "a"}, {"path_name": "b"}]
			}`, server.URL)
			return
		}
		fmt.Fprint(w, `{"next": "", "results": [{"path_name": "c"}]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL, &fakeSessionSource{token: "ok"})
	raws, err := client.FetchPaginated(context.Background(), ResourceProgress, map[string]string{"club": "c1"})
	require.NoError(t, err)
	require.Len(t, raws, 3)

	rows, err := DecodeAll[ProgressResult](raws)
	require.NoError(t, err)
	require.Equal(t, "c", rows[2].PathName)
}

func TestExpandEndpointRejectsMissingParams(t *testing.T) {
	_, err := expandEndpoint(ResourceOverview, map[string]string{"club": "c1"})
	require.Error(t, err)

	link, err := expandEndpoint(ResourceOverview, map[string]string{"club": "c1", "page": "1"})
	require.NoError(t, err)
	require.Equal(t, "/api/bcm/member/overview/?club=c1&page=1", link)
}

func TestRequestErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &RequestError{Kind: KindTransient, Resource: ResourceOverview, Err: inner}
	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "transient")
}
