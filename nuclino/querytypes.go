package nuclino

// ListQuery defines the query parameters shared by the Nuclino list
// endpoints (workspaces and items).  Pagination is pure offset-by-cursor:
// pass the id of the last object you saw as 'after' to get the next batch.
type ListQuery struct {
	// Limit is the page size; Nuclino defaults to 100, range 1-100.
	Limit int `url:"limit,omitempty"`

	// After is the id of the last object of the previous page.
	After string `url:"after,omitempty"`

	// WorkspaceID scopes an item listing to one workspace.  Ignored by the
	// workspace-list endpoint.
	WorkspaceID string `url:"workspaceId,omitempty"`

	// TeamID scopes a workspace listing to one team.
	TeamID string `url:"teamId,omitempty"`
}
