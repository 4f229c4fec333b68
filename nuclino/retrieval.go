package nuclino

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListAllWorkspaces pages through the workspace listing until exhausted.
func (api *API) ListAllWorkspaces(ctx context.Context) ([]Workspace, error) {
	workspaces := []Workspace{}

	query := ListQuery{
		Limit: 100,
	}

	for {
		ep, err := api.getWorkspacesEndpoint(query)
		if err != nil {
			return nil, fmt.Errorf("nuclino: couldn't get workspaces endpoint: %w", err)
		}

		body, err := api.request(ctx, ep)
		if err != nil {
			return nil, fmt.Errorf("nuclino: couldn't list workspaces: %w", err)
		}

		data, err := unwrap(body)
		if err != nil {
			return nil, err
		}

		var list listData
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("nuclino: couldn't parse json response: %w", err)
		}

		var batch []Workspace
		if err := json.Unmarshal(list.Results, &batch); err != nil {
			return nil, fmt.Errorf("nuclino: couldn't parse workspace list: %w", err)
		}

		workspaces = append(workspaces, batch...)

		// Cursor pagination: the id of the last result is the next cursor.
		// An incomplete batch means we've hit the end.
		if len(batch) < query.Limit {
			break
		}
		query.After = batch[len(batch)-1].ID
	}

	return workspaces, nil
}

// ListItems pages through the flat item listing of one workspace.  The
// listing carries no parent information; hierarchy comes from collection
// child ids during hydration.
func (api *API) ListItems(ctx context.Context, workspaceID string) ([]Item, error) {
	items := []Item{}

	query := ListQuery{
		Limit:       100,
		WorkspaceID: workspaceID,
	}

	for {
		ep, err := api.getItemsEndpoint(query)
		if err != nil {
			return nil, fmt.Errorf("nuclino: couldn't get items endpoint: %w", err)
		}

		body, err := api.request(ctx, ep)
		if err != nil {
			return nil, fmt.Errorf("nuclino: couldn't list items: %w", err)
		}

		data, err := unwrap(body)
		if err != nil {
			return nil, err
		}

		var list listData
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("nuclino: couldn't parse json response: %w", err)
		}

		var batch []Item
		if err := json.Unmarshal(list.Results, &batch); err != nil {
			return nil, fmt.Errorf("nuclino: couldn't parse item list: %w", err)
		}

		items = append(items, batch...)

		if len(batch) < query.Limit {
			break
		}
		query.After = batch[len(batch)-1].ID
	}

	return items, nil
}
