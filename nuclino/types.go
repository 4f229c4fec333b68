package nuclino

// See https://help.nuclino.com/d3a29686-api, the v0 REST API.  Responses are
// wrapped in an envelope (see responsetypes.go); these are the payloads.

// Workspace is a top-level container of pages.  ChildIDs are the root-level
// items, in sidebar order.
type Workspace struct {
	Object        string   `json:"object,omitempty"`
	ID            string   `json:"id,omitempty"`
	TeamID        string   `json:"teamId,omitempty"`
	Name          string   `json:"name,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	CreatedUserID string   `json:"createdUserId,omitempty"`
	ChildIDs      []string `json:"childIds,omitempty"`
}

// Item is a single Nuclino page or collection ("cluster" in the UI).  The
// same endpoint serves both; Object distinguishes them.  Items carry markdown
// Content plus ContentMeta; collections carry ChildIDs instead.
type Item struct {
	Object            string `json:"object,omitempty"` // "item" or "collection"
	ID                string `json:"id,omitempty"`
	WorkspaceID       string `json:"workspaceId,omitempty"`
	URL               string `json:"url,omitempty"`
	Title             string `json:"title,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	CreatedUserID     string `json:"createdUserId,omitempty"`
	LastUpdatedAt     string `json:"lastUpdatedAt,omitempty"`
	LastUpdatedUserID string `json:"lastUpdatedUserId,omitempty"`

	// Item-only fields.
	Content     string       `json:"content,omitempty"`
	ContentMeta *ContentMeta `json:"contentMeta,omitempty"`

	// Collection-only field.
	ChildIDs []string `json:"childIds,omitempty"`
}

// IsCollection reports whether the item is a collection node rather than a
// content-bearing page.
func (i Item) IsCollection() bool {
	return i.Object == "collection"
}

// ContentMeta lists the other items and the files an item's markdown refers
// to.  The content itself only contains opaque URLs; these id lists are how
// we find the referenced objects.
type ContentMeta struct {
	ItemIDs []string `json:"itemIds,omitempty"`
	FileIDs []string `json:"fileIds,omitempty"`
}

// User is a workspace member.  We cache these for best-effort author
// attribution; a missing user is never fatal.
type User struct {
	Object    string `json:"object,omitempty"`
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DisplayName renders a human-readable identity string.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	if u.Email != "" {
		return name + " <" + u.Email + ">"
	}
	return name
}

// File is media metadata.  The Download URL is short-lived, so callers should
// fetch the bytes promptly after looking a file up.
type File struct {
	Object        string       `json:"object,omitempty"`
	ID            string       `json:"id,omitempty"`
	ItemID        string       `json:"itemId,omitempty"`
	FileName      string       `json:"fileName,omitempty"`
	CreatedAt     string       `json:"createdAt,omitempty"`
	CreatedUserID string       `json:"createdUserId,omitempty"`
	Download      DownloadInfo `json:"download"`
}

type DownloadInfo struct {
	URL       string `json:"url,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}
