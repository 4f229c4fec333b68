package localcache

import "time"

// ItemKind tells pages and collections apart.  Collections carry no prose of
// their own, only an ordering of children.
type ItemKind string

const (
	KindPage       ItemKind = "page"
	KindCollection ItemKind = "collection"
)

// CachedWorkspace is the workspace header as written to disk.  It anchors the
// item tree: ChildIDs are the top-level items in sidebar order.
type CachedWorkspace struct {
	ID       string   `json:"id"`
	TeamID   string   `json:"teamId,omitempty"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	ChildIDs []string `json:"childIds"`
}

// CachedItem is one wiki item, hydrated and frozen to disk.  Everything the
// migration needs must be on here; the migrate step never talks to Nuclino.
type CachedItem struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parentId,omitempty"`
	Kind     ItemKind `json:"kind"`
	Title    string   `json:"title"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    string    `json:"author,omitempty"`

	// URL is the item's address in the source wiki, used to remap
	// cross-links during migration.
	URL string `json:"url,omitempty"`

	// Content is the raw markdown body.  Empty for collections.
	Content string `json:"content,omitempty"`

	// ChildIDs is the ordered list of children (collections only).
	ChildIDs []string `json:"childIds,omitempty"`

	// MediaRefs maps source file URLs to blobs we downloaded alongside.
	MediaRefs map[string]CachedMedia `json:"mediaRefs,omitempty"`
}

func (i CachedItem) IsCollection() bool {
	return i.Kind == KindCollection
}

// CachedMedia is one downloaded attachment, keyed in CachedItem.MediaRefs by
// the URL it had in the source markdown.
type CachedMedia struct {
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
}

// CachedUser is an author we resolved while caching, so item bylines survive
// even after the source account disappears.
type CachedUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}
