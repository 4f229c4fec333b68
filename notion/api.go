package notion

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/toothbrush/nuclino-to-notion/pacing"
)

// DefaultWait is the pause before each Notion request.  Notion's documented
// average is 3 requests/second; we stay politely under it and lean on the
// conflict retry for the rest.
const DefaultWait = 200 * time.Millisecond

// notionVersion is the API version header every request must carry.
const notionVersion = "2022-06-28"

func NewAPI(apikey string, pace pacing.Strategy) (*API, error) {
	if apikey == "" {
		return nil, fmt.Errorf("notion: api key is empty, please set NOTION_API_KEY")
	}

	u, err := url.ParseRequestURI("https://api.notion.com/v1")
	if err != nil {
		return nil, fmt.Errorf("notion: couldn't parse REST API URL: %w", err)
	}

	if pace == nil {
		pace = pacing.NewFixedInterval(DefaultWait)
	}

	a := &API{
		BaseURI: u,
		apikey:  apikey,
		Pace:    pace,
		Backoff: DefaultWait,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Base of the Notion REST API, https://api.notion.com/v1.
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Pace is consulted before every request, including retries.
	Pace pacing.Strategy

	// Backoff is the base delay for conflict retries; attempt n waits n times
	// this long before re-issuing.
	Backoff time.Duration

	apikey string
}

func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("notion: failed to parse endpoint ref: %w", err)
	}

	return a.BaseURI.ResolveReference(ref), nil
}
