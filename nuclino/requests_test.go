package nuclino

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toothbrush/nuclino-to-notion/pacing"
)

// testAPI points a client at a local fake server, unpaced.
func testAPI(t *testing.T, handler http.Handler) (*API, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := NewAPI("test-key", pacing.None{})
	require.NoError(t, err)
	base, err := url.Parse(server.URL + "/v0")
	require.NoError(t, err)
	api.BaseURI = base
	api.Client = server.Client()
	return api, server
}

func TestGetItemHydrated(t *testing.T) {
	api, _ := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/items/abc", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"status":"success","data":{
			"object":"item","id":"abc","workspaceId":"ws1",
			"url":"https://app.nuclino.com/t/b/abc",
			"title":"Hello","content":"# Hello\n",
			"contentMeta":{"itemIds":["def"],"fileIds":["f1"]}}}`)
	}))

	item, err := api.GetItem(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Hello", item.Title)
	assert.False(t, item.IsCollection())
	assert.Equal(t, []string{"f1"}, item.ContentMeta.FileIDs)
}

func TestGetItemNotFound(t *testing.T) {
	api, _ := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status":"fail","message":"Item not found"}`)
	}))

	_, err := api.GetItem(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransientFailuresAreRetried(t *testing.T) {
	attempts := 0
	api, _ := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"success","data":{"object":"item","id":"abc","title":"Recovered"}}`)
	}))

	item, err := api.GetItem(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Recovered", item.Title)
	assert.Equal(t, 3, attempts)
}

func TestTransientRetriesAreBounded(t *testing.T) {
	attempts := 0
	api, _ := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := api.GetItem(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, maxAttempts, attempts)
}

func TestClientFaultIsFatal(t *testing.T) {
	attempts := 0
	api, _ := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"fail","message":"Invalid API key"}`)
	}))

	_, err := api.GetItem(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a 4xx must not be retried")
	assert.ErrorContains(t, err, "Invalid API key")
}

func TestListAllWorkspacesPaginates(t *testing.T) {
	pageSize := 100
	calls := 0
	api, _ := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		after := r.URL.Query().Get("after")
		switch calls {
		case 1:
			assert.Empty(t, after)
			fmt.Fprintf(w, `{"status":"success","data":{"object":"list","results":[%s]}}`, fakeWorkspaces(0, pageSize))
		case 2:
			assert.Equal(t, "ws-99", after)
			fmt.Fprint(w, `{"status":"success","data":{"object":"list","results":[{"id":"ws-last","name":"Tail"}]}}`)
		default:
			t.Fatal("unexpected extra page request")
		}
	}))

	spaces, err := api.ListAllWorkspaces(context.Background())
	require.NoError(t, err)
	assert.Len(t, spaces, pageSize+1)
	assert.Equal(t, "Tail", spaces[pageSize].Name)
}

func fakeWorkspaces(from, n int) string {
	out := ""
	for i := from; i < from+n; i++ {
		if out != "" {
			out += ","
		}
		out += fmt.Sprintf(`{"id":"ws-%d","name":"Space %d"}`, i, i)
	}
	return out
}

func TestDownloadFileBytes(t *testing.T) {
	api, server := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "pre-signed URLs must not leak the API key")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))

	blob, err := api.DownloadFile(context.Background(), server.URL+"/signed/blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, blob)
}
