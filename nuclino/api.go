package nuclino

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/toothbrush/nuclino-to-notion/pacing"
)

// DefaultWait is how long we pause before each Nuclino request unless the
// operator overrides it.  The rate limits aren't documented, and this value
// has proven polite enough in practice.
const DefaultWait = 750 * time.Millisecond

func NewAPI(apikey string, pace pacing.Strategy) (*API, error) {
	if apikey == "" {
		return nil, fmt.Errorf("nuclino: api key is empty, please set NUCLINO_API_KEY")
	}

	u, err := url.ParseRequestURI("https://api.nuclino.com/v0")
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't parse REST API URL: %w", err)
	}

	if pace == nil {
		pace = pacing.NewFixedInterval(DefaultWait)
	}

	a := &API{
		BaseURI: u,
		apikey:  apikey,
		Pace:    pace,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Base of the Nuclino REST API, https://api.nuclino.com/v0.
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Pace is consulted before every request.
	Pace pacing.Strategy

	apikey string
}
