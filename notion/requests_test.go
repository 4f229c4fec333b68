package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toothbrush/nuclino-to-notion/pacing"
)

func testAPI(t *testing.T, handler http.Handler) *API {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := NewAPI("secret_test", pacing.None{})
	require.NoError(t, err)
	base, err := url.Parse(server.URL + "/v1")
	require.NoError(t, err)
	api.BaseURI = base
	api.Client = server.Client()
	api.Backoff = 0 // keep retry tests fast
	return api
}

func TestCreatePage(t *testing.T) {
	pageID := uuid.NewString()
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret_test", r.Header.Get("Authorization"))
		assert.Equal(t, notionVersion, r.Header.Get("Notion-Version"))

		var req createPageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "parent-1", req.Parent.PageID)
		assert.Equal(t, "My page", req.Properties["title"].Title[0].Text.Content)

		fmt.Fprintf(w, `{"object":"page","id":%q,"url":"https://notion.so/%s"}`, pageID, pageID)
	}))

	page, err := api.CreatePage(context.Background(), "parent-1", TitleProperty("My page"))
	require.NoError(t, err)
	assert.Equal(t, pageID, page.ID)
}

func TestAppendBlocksChunksAndPreservesOrder(t *testing.T) {
	var batches [][]string
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PATCH", r.Method)
		assert.Equal(t, "/v1/blocks/page-1/children", r.URL.Path)

		var req appendBlocksRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		texts := make([]string, 0, len(req.Children))
		for _, b := range req.Children {
			texts = append(texts, b.Paragraph.RichText[0].Text.Content)
		}
		batches = append(batches, texts)
		fmt.Fprint(w, `{"object":"list","results":[]}`)
	}))

	blocks := make([]Block, 0, 250)
	for i := 0; i < 250; i++ {
		blocks = append(blocks, Block{
			Object:    "block",
			Type:      TypeParagraph,
			Paragraph: &RichTextValue{RichText: []RichText{Text(fmt.Sprintf("block %03d", i))}},
		})
	}

	_, err := api.AppendBlocks(context.Background(), "page-1", blocks)
	require.NoError(t, err)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)
	assert.Equal(t, "block 000", batches[0][0])
	assert.Equal(t, "block 099", batches[0][99])
	assert.Equal(t, "block 100", batches[1][0])
	assert.Equal(t, "block 249", batches[2][49])
}

func TestConflictIsRetriedUntilSuccess(t *testing.T) {
	attempts := 0
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 3 {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"object":"error","status":409,"code":"conflict_error","message":"Conflict occurred while saving"}`)
			return
		}
		fmt.Fprint(w, `{"object":"list","results":[{"object":"block","id":"b1","type":"paragraph"}]}`)
	}))

	created, err := api.AppendBlocks(context.Background(), "page-1", []Block{
		{Object: "block", Type: TypeParagraph, Paragraph: &RichTextValue{RichText: []RichText{Text("hi")}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	require.Len(t, created, 1)
	assert.Equal(t, "b1", created[0].ID)
}

func TestConflictRetriesAreBounded(t *testing.T) {
	attempts := 0
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"object":"error","status":429,"code":"rate_limited","message":"Rate limited"}`)
	}))

	_, err := api.CreatePage(context.Background(), "parent-1", TitleProperty("Doomed"))
	require.Error(t, err)
	assert.Equal(t, maxConflictRetries+1, attempts)
	assert.ErrorContains(t, err, "retries exhausted")
}

func TestValidationErrorIsFatal(t *testing.T) {
	attempts := 0
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"object":"error","status":400,"code":"validation_error","message":"body failed validation"}`)
	}))

	_, err := api.CreatePage(context.Background(), "parent-1", TitleProperty("Bad"))
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a validation error must not be retried")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "validation_error", statusErr.Code)
	assert.False(t, statusErr.Conflict())
}
