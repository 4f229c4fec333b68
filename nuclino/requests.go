package nuclino

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrNotFound means the requested object doesn't exist on Nuclino's side.
// Absence is not a fault; callers decide whether it matters.
var ErrNotFound = errors.New("nuclino: not found")

// StatusError is a non-2xx response from Nuclino.
type StatusError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nuclino: HTTP %d: %s: %s", e.StatusCode, e.Message, e.URL)
}

// Transient reports whether a retry might reasonably succeed.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// How many times we'll re-issue a request that failed transiently (network
// hiccup, 5xx, 429).  Each attempt still pays the full pacing delay.
const maxAttempts = 4

// request performs a paced GET against the API, retrying transient failures.
func (api *API) request(ctx context.Context, url *url.URL) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := api.Pace.Wait(ctx); err != nil {
			return nil, fmt.Errorf("nuclino: interrupted while pacing: %w", err)
		}

		body, err := api.requestOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Transient() {
			return nil, err
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("nuclino: giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (api *API) requestOnce(ctx context.Context, url *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't instantiate http request: %w", err)
	}

	req.Header.Add("Accept", "application/json, */*")
	req.Header.Set("Authorization", api.apikey)

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't perform http request: %w", err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("nuclino: couldn't close response body: %w", err)
	}

	switch {
	case response.StatusCode == http.StatusOK:
		return body, nil
	case response.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url.String())
	default:
		return nil, &StatusError{
			StatusCode: response.StatusCode,
			Message:    failureMessage(body, response.Status),
			URL:        url.String(),
		}
	}
}

// failureMessage digs the human-readable message out of Nuclino's failure
// envelope, falling back to the bare HTTP status line.
func failureMessage(body []byte, status string) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return status
}

// unwrap peels the success envelope off a response body.
func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("nuclino: couldn't parse json response: %w", err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("nuclino: API reported %q: %s", env.Status, env.Message)
	}
	return env.Data, nil
}

// GetItem fetches one item or collection, fully hydrated: title, markdown
// content, content metadata, child ids.
func (api *API) GetItem(ctx context.Context, id string) (*Item, error) {
	ep, err := api.getItemByIDEndpoint(id)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't get single item endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't perform request: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("nuclino: couldn't parse json response: %w", err)
	}

	return &item, nil
}

// GetUser fetches one workspace member.
func (api *API) GetUser(ctx context.Context, id string) (*User, error) {
	ep, err := api.getUserByIDEndpoint(id)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't get user endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't perform request: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("nuclino: couldn't parse json response: %w", err)
	}

	return &user, nil
}

// GetFile fetches media metadata.  The embedded download URL expires quickly.
func (api *API) GetFile(ctx context.Context, id string) (*File, error) {
	ep, err := api.getFileByIDEndpoint(id)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't get file endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't perform request: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("nuclino: couldn't parse json response: %w", err)
	}

	return &file, nil
}

// DownloadFile fetches raw blob bytes from a (pre-signed) download URL.  The
// URL points at Nuclino's storage host, not the REST API, but we pace and
// retry it the same way.
func (api *API) DownloadFile(ctx context.Context, downloadURL string) ([]byte, error) {
	u, err := url.Parse(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't parse download URL: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := api.Pace.Wait(ctx); err != nil {
			return nil, fmt.Errorf("nuclino: interrupted while pacing: %w", err)
		}

		body, err := api.downloadOnce(ctx, u)
		if err == nil {
			return body, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Transient() {
			return nil, err
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("nuclino: giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (api *API) downloadOnce(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't instantiate http request: %w", err)
	}

	// Pre-signed URL; no Authorization header wanted here.
	response, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't perform http request: %w", err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusOK:
		body, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("nuclino: couldn't read download body: %w", err)
		}
		return body, nil
	case response.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u.String())
	default:
		return nil, &StatusError{
			StatusCode: response.StatusCode,
			Message:    response.Status,
			URL:        u.String(),
		}
	}
}
