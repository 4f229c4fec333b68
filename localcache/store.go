// Package localcache is the durable on-disk cache that decouples the two
// halves of a migration.  The cache step writes a complete snapshot of a
// workspace here; the migrate step reads only from here.  Layout, per
// workspace slug:
//
//	<store>/<slug>/workspace_<id>.json
//	<store>/<slug>/page_<id>.json
//	<store>/<slug>/user_<id>.json
//	<store>/<slug>/files/<fileid>_<name>
//	<store>/<slug>/migration-state.yaml
package localcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound means the requested object has never been cached.
var ErrNotFound = errors.New("localcache: not found")

// Store is a file-per-item store rooted at a workspace directory.  Writes are
// idempotent upserts: re-caching an unchanged item rewrites the same bytes.
type Store struct {
	// Dir is the workspace directory, i.e. <store-root>/<workspace-slug>.
	Dir string
}

// Open creates (if needed) and returns the store for one workspace.
func Open(root string, workspaceSlug string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("localcache: store root is empty")
	}
	dir := path.Join(root, workspaceSlug)
	if err := os.MkdirAll(path.Join(dir, "files"), 0750); err != nil {
		return nil, fmt.Errorf("localcache: couldn't create store directory %s: %w", dir, err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) workspacePath(id string) string {
	return path.Join(s.Dir, fmt.Sprintf("workspace_%s.json", id))
}

func (s *Store) itemPath(id string) string {
	return path.Join(s.Dir, fmt.Sprintf("page_%s.json", id))
}

func (s *Store) userPath(id string) string {
	return path.Join(s.Dir, fmt.Sprintf("user_%s.json", id))
}

// BlobPath is where a downloaded attachment lives.  The original filename is
// kept in the name so a human rummaging in the store can tell blobs apart.
func (s *Store) BlobPath(fileID string, filename string) string {
	return path.Join(s.Dir, "files", fmt.Sprintf("%s_%s", fileID, path.Base(filename)))
}

func (s *Store) PutWorkspace(ws CachedWorkspace) error {
	return s.writeJSON(s.workspacePath(ws.ID), ws)
}

func (s *Store) GetWorkspace(id string) (CachedWorkspace, error) {
	var ws CachedWorkspace
	if err := s.readJSON(s.workspacePath(id), &ws); err != nil {
		return CachedWorkspace{}, err
	}
	return ws, nil
}

func (s *Store) PutItem(item CachedItem) error {
	if item.ID == "" {
		return fmt.Errorf("localcache: refusing to store item with empty ID")
	}
	return s.writeJSON(s.itemPath(item.ID), item)
}

func (s *Store) GetItem(id string) (CachedItem, error) {
	var item CachedItem
	if err := s.readJSON(s.itemPath(id), &item); err != nil {
		return CachedItem{}, err
	}
	return item, nil
}

func (s *Store) PutUser(user CachedUser) error {
	if user.ID == "" {
		return fmt.Errorf("localcache: refusing to store user with empty ID")
	}
	return s.writeJSON(s.userPath(user.ID), user)
}

func (s *Store) GetUser(id string) (CachedUser, error) {
	var user CachedUser
	if err := s.readJSON(s.userPath(id), &user); err != nil {
		return CachedUser{}, err
	}
	return user, nil
}

// PutBlob stores an attachment's raw bytes and returns its path.
func (s *Store) PutBlob(fileID string, filename string, contents []byte) (string, error) {
	abs := s.BlobPath(fileID, filename)
	if err := os.WriteFile(abs, contents, 0640); err != nil {
		return "", fmt.Errorf("localcache: couldn't write blob %s: %w", abs, err)
	}
	return abs, nil
}

// HasBlob reports whether an attachment has already been downloaded.
func (s *Store) HasBlob(fileID string, filename string) bool {
	_, err := os.Stat(s.BlobPath(fileID, filename))
	return err == nil
}

// FindWorkspace returns the workspace header in this store directory.  Each
// slug directory holds exactly one.
func (s *Store) FindWorkspace() (CachedWorkspace, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return CachedWorkspace{}, fmt.Errorf("localcache: couldn't list store directory %s: %w", s.Dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "workspace_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var ws CachedWorkspace
		if err := s.readJSON(path.Join(s.Dir, name), &ws); err != nil {
			return CachedWorkspace{}, err
		}
		return ws, nil
	}
	return CachedWorkspace{}, fmt.Errorf("%w: no cached workspace in %s, run cache first", ErrNotFound, s.Dir)
}

// ListItemIDs returns the IDs of every cached item, in no particular order.
func (s *Store) ListItemIDs() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("localcache: couldn't list store directory %s: %w", s.Dir, err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "page_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, "page_"), ".json"))
	}
	return ids, nil
}

func (s *Store) writeJSON(abs string, v any) error {
	contents, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("localcache: couldn't marshal %s: %w", filepath.Base(abs), err)
	}
	if err := os.WriteFile(abs, append(contents, '\n'), 0640); err != nil {
		return fmt.Errorf("localcache: couldn't write %s: %w", abs, err)
	}
	return nil
}

func (s *Store) readJSON(abs string, v any) error {
	source, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(abs))
	}
	if err != nil {
		return fmt.Errorf("localcache: couldn't read %s: %w", abs, err)
	}
	if err := json.Unmarshal(source, v); err != nil {
		return fmt.Errorf("localcache: couldn't parse %s: %w", abs, err)
	}
	return nil
}
