package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBlocksPerAppend is the API limit on children per append call.
const maxBlocksPerAppend = 100

// maxConflictRetries bounds how often we re-issue a request that came back
// 409 or 429.  The Nuclino-side pacing mostly keeps us out of trouble, but
// Notion conflicts with itself at surprisingly low request rates.
const maxConflictRetries = 5

// StatusError is a non-2xx response from Notion.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notion: HTTP %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Conflict reports whether the request collided with rate limiting or
// concurrent edits and is worth re-issuing.
func (e *StatusError) Conflict() bool {
	return e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusTooManyRequests
}

type createPageRequest struct {
	Parent     Parent              `json:"parent"`
	Properties map[string]Property `json:"properties"`
	Children   []Block             `json:"children,omitempty"`
}

type appendBlocksRequest struct {
	Children []Block `json:"children"`
	After    string  `json:"after,omitempty"`
}

type appendBlocksResponse struct {
	Object  string  `json:"object"`
	Results []Block `json:"results"`
}

type errorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreatePage creates an empty page beneath the given parent page.  Content is
// appended separately so that one oversized page can't fail wholesale.
func (api *API) CreatePage(ctx context.Context, parentID string, properties map[string]Property) (*Page, error) {
	req := createPageRequest{
		Parent:     Parent{Type: "page_id", PageID: parentID},
		Properties: properties,
	}

	body, err := api.requestWithRetry(ctx, "POST", "/v1/pages", req)
	if err != nil {
		return nil, fmt.Errorf("notion: couldn't create page: %w", err)
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("notion: couldn't parse json response: %w", err)
	}

	return &page, nil
}

// AppendBlocks appends children to a block (or page), splitting the list into
// API-sized batches and appending them in order.  It returns the created
// blocks, ids included.
func (api *API) AppendBlocks(ctx context.Context, blockID string, blocks []Block) ([]Block, error) {
	created := []Block{}

	for len(blocks) > 0 {
		batch := blocks
		if len(batch) > maxBlocksPerAppend {
			batch = blocks[:maxBlocksPerAppend]
		}
		blocks = blocks[len(batch):]

		req := appendBlocksRequest{Children: batch}
		body, err := api.requestWithRetry(ctx, "PATCH", fmt.Sprintf("/v1/blocks/%s/children", blockID), req)
		if err != nil {
			return created, fmt.Errorf("notion: couldn't append blocks: %w", err)
		}

		var resp appendBlocksResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return created, fmt.Errorf("notion: couldn't parse json response: %w", err)
		}
		created = append(created, resp.Results...)
	}

	return created, nil
}

// requestWithRetry performs a paced request, re-issuing it with increasing
// backoff while Notion reports a transient conflict.
func (api *API) requestWithRetry(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		if attempt > 0 {
			// Linearly increasing backoff on top of the usual pacing.
			backoff := time.Duration(attempt) * api.Backoff
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}
		if err := api.Pace.Wait(ctx); err != nil {
			return nil, fmt.Errorf("notion: interrupted while pacing: %w", err)
		}

		body, err := api.requestOnce(ctx, method, endpoint, payload)
		if err == nil {
			return body, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Conflict() {
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("notion: conflict retries exhausted: %w", lastErr)
}

func (api *API) requestOnce(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	ep, err := api.resolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notion: couldn't marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, ep.String(), bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("notion: couldn't instantiate http request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+api.apikey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion: couldn't perform http request: %w", err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("notion: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("notion: couldn't close response body: %w", err)
	}

	if response.StatusCode == http.StatusOK {
		return body, nil
	}

	statusErr := &StatusError{
		StatusCode: response.StatusCode,
		Message:    response.Status,
	}
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		statusErr.Code = parsed.Code
		statusErr.Message = parsed.Message
	}
	return nil, statusErr
}
