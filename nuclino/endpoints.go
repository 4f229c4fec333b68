package nuclino

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// getWorkspacesEndpoint returns the endpoint to list workspaces:
// https://help.nuclino.com/d3a29686-api (GET /v0/workspaces)
func (a *API) getWorkspacesEndpoint(opts ListQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("/v0/workspaces")
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getItemsEndpoint returns the endpoint to list the items of a workspace
// (GET /v0/items?workspaceId=...).  The listing is flat; hierarchy has to be
// reconstructed from collection child ids.
func (a *API) getItemsEndpoint(opts ListQuery) (*url.URL, error) {
	if opts.WorkspaceID == "" && opts.TeamID == "" {
		return nil, fmt.Errorf("nuclino: please provide a workspace or team id to list items")
	}

	ep, err := a.resolveEndpoint("/v0/items")
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("nuclino: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getItemByIDEndpoint returns the endpoint to fetch one item or collection,
// fully hydrated (GET /v0/items/{id}).
func (a *API) getItemByIDEndpoint(id string) (*url.URL, error) {
	if id == "" {
		return nil, fmt.Errorf("nuclino: please provide ID to get item")
	}
	return a.resolveEndpoint(fmt.Sprintf("/v0/items/%s", id))
}

// getUserByIDEndpoint returns the endpoint to fetch one user
// (GET /v0/users/{id}).
func (a *API) getUserByIDEndpoint(id string) (*url.URL, error) {
	if id == "" {
		return nil, fmt.Errorf("nuclino: please provide ID to get user")
	}
	return a.resolveEndpoint(fmt.Sprintf("/v0/users/%s", id))
}

// getFileByIDEndpoint returns the endpoint to fetch file metadata, including
// a short-lived download URL (GET /v0/files/{id}).
func (a *API) getFileByIDEndpoint(id string) (*url.URL, error) {
	if id == "" {
		return nil, fmt.Errorf("nuclino: please provide ID to get file")
	}
	return a.resolveEndpoint(fmt.Sprintf("/v0/files/%s", id))
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	baseUri := a.BaseURI

	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("nuclino: failed to parse endpoint ref: %w", err)
	}

	return baseUri.ResolveReference(ref), nil
}
