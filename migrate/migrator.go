// Package migrate replays a cached workspace into Notion.  It reads only
// from the local cache, never from Nuclino, and records every outcome in the
// migration ledger so an interrupted run picks up where it stopped.
package migrate

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/toothbrush/nuclino-to-notion/convert"
	"github.com/toothbrush/nuclino-to-notion/localcache"
	"github.com/toothbrush/nuclino-to-notion/notion"
)

// Destination is the slice of the Notion client the migrator needs.
type Destination interface {
	CreatePage(ctx context.Context, parentID string, properties map[string]notion.Property) (*notion.Page, error)
	AppendBlocks(ctx context.Context, blockID string, blocks []notion.Block) ([]notion.Block, error)
}

// Prompter is how the migrator tells a human about work the API can't do.
// Notion's API has no file-upload endpoint, so attachments need hands.
type Prompter interface {
	ManualUpload(item localcache.CachedItem, page notion.Page, upload convert.PendingUpload)
}

// Migrator drives one workspace's migration.
type Migrator struct {
	Store       *localcache.Store
	Records     *localcache.RecordSet
	Destination Destination
	Prompter    Prompter
	Logger      *log.Logger

	// MaxListDepth caps list nesting in translated pages.  Zero means the
	// translator's default.
	MaxListDepth int

	// urlmap rewrites source wiki links to their migrated counterparts.
	// Keyed by the item's URL in the source wiki.
	urlmap map[string]string
}

// Summary is what one run achieved.
type Summary struct {
	Created int
	Skipped int
	Failed  int

	Failures []Failure
}

// Failure is one item that didn't make it, with the reason.
type Failure struct {
	ItemID string
	Title  string
	Err    error
}

// MigrateWorkspace migrates a whole cached workspace under the given Notion
// parent page, parents before children.  A failed item strands its subtree
// for this run but never stops its siblings.
func (m *Migrator) MigrateWorkspace(ctx context.Context, workspaceID string, notionParentID string) (*Summary, error) {
	ws, err := m.Store.GetWorkspace(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("migrate: couldn't load cached workspace %s: %w", workspaceID, err)
	}

	if err := m.rebuildURLMap(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, childID := range ws.ChildIDs {
		if err := m.migrateSubtree(ctx, childID, notionParentID, summary); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// MigrateSingle migrates one item (without its children) under the given
// Notion parent.  Used by the migrate-page command.
func (m *Migrator) MigrateSingle(ctx context.Context, itemID string, notionParentID string) (*Summary, error) {
	if err := m.rebuildURLMap(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	if _, err := m.migratePage(ctx, itemID, notionParentID, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// rebuildURLMap joins created ledger entries with cached item URLs, so links
// to pages migrated in earlier runs still get rewritten in this one.
func (m *Migrator) rebuildURLMap() error {
	m.urlmap = map[string]string{}
	for itemID, record := range m.Records.CreatedPages() {
		item, err := m.Store.GetItem(itemID)
		if err != nil {
			// A ledger entry for an item that's gone from the cache is
			// odd but harmless; its links just won't rewrite.
			m.Logger.Printf("ledger names %s but it isn't cached: %v\n", itemID, err)
			continue
		}
		if item.URL != "" && record.NotionURL != "" {
			m.urlmap[item.URL] = record.NotionURL
		}
	}
	return nil
}

func (m *Migrator) migrateSubtree(ctx context.Context, itemID string, notionParentID string, summary *Summary) error {
	freshItem := !m.Records.IsCreated(itemID)

	page, err := m.migratePage(ctx, itemID, notionParentID, summary)
	if err != nil {
		return err
	}
	if page == nil {
		// The item failed; its descendants stay untouched this run.
		return nil
	}

	item, err := m.Store.GetItem(itemID)
	if err != nil {
		return fmt.Errorf("migrate: couldn't reload cached item %s: %w", itemID, err)
	}

	mentions := []notion.Block{}
	for _, childID := range item.ChildIDs {
		freshChild := !m.Records.IsCreated(childID)
		if err := m.migrateSubtree(ctx, childID, page.ID, summary); err != nil {
			return err
		}
		record, ok := m.Records.Get(childID)
		if !ok || record.Status != localcache.StatusCreated {
			continue
		}
		// A fresh collection indexes all its children; a resumed one only
		// gains entries for children that landed this run, so re-runs
		// never stack duplicate mentions.
		if freshItem || freshChild {
			child, err := m.Store.GetItem(childID)
			if err != nil {
				return fmt.Errorf("migrate: couldn't reload cached item %s: %w", childID, err)
			}
			mentions = append(mentions, notion.PageMentionItem(notion.Page{ID: record.NotionID}, child.Title))
		}
	}

	// Collections read as a linked index of their children.
	if item.IsCollection() && len(mentions) > 0 {
		if _, err := m.Destination.AppendBlocks(ctx, page.ID, mentions); err != nil {
			m.Logger.Printf("couldn't append index to collection %q: %v\n", item.Title, err)
		}
	}
	return nil
}

// migratePage pushes one item to the destination.  A nil page with a nil
// error means the item failed and was recorded as such.
func (m *Migrator) migratePage(ctx context.Context, itemID string, notionParentID string, summary *Summary) (*notion.Page, error) {
	if record, ok := m.Records.Get(itemID); ok && record.Status == localcache.StatusCreated {
		m.Logger.Printf("already migrated, skipping: %s\n", itemID)
		summary.Skipped++
		return &notion.Page{ID: record.NotionID, URL: record.NotionURL}, nil
	}

	if err := m.Records.MarkPending(itemID); err != nil {
		return nil, fmt.Errorf("migrate: ledger write failed: %w", err)
	}

	item, err := m.Store.GetItem(itemID)
	if err != nil {
		return nil, m.failItem(itemID, "", summary, fmt.Errorf("migrate: item not in cache: %w", err))
	}

	page, uploads, err := m.pushItem(ctx, item, notionParentID)
	if err != nil {
		if ctxErr := context.Cause(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, m.failItem(itemID, item.Title, summary, err)
	}

	if err := m.Records.MarkCreated(itemID, page.ID, page.URL); err != nil {
		return nil, fmt.Errorf("migrate: ledger write failed: %w", err)
	}
	if item.URL != "" && page.URL != "" {
		m.urlmap[item.URL] = page.URL
	}

	for _, upload := range uploads {
		m.Prompter.ManualUpload(item, *page, upload)
	}

	m.Logger.Printf("migrated %q -> %s\n", item.Title, page.URL)
	summary.Created++
	return page, nil
}

// pushItem creates the Notion page and appends its translated body.
func (m *Migrator) pushItem(ctx context.Context, item localcache.CachedItem, notionParentID string) (*notion.Page, []convert.PendingUpload, error) {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	page, err := m.Destination.CreatePage(ctx, notionParentID, notion.TitleProperty(title))
	if err != nil {
		return nil, nil, fmt.Errorf("migrate: create page failed: %w", err)
	}

	if item.IsCollection() {
		// Body arrives later, as a mention index of its children.
		return page, nil, nil
	}

	result := convert.Convert(m.remapLinks(item.Content), convert.Options{
		MaxListDepth: m.MaxListDepth,
		Media:        m.mediaFor(item),
	})
	for _, warning := range result.Warnings {
		m.Logger.Printf("translation note for %q: %s: %s\n", item.Title, warning.Kind, warning.Detail)
	}

	if len(result.Blocks) > 0 {
		if _, err := m.Destination.AppendBlocks(ctx, page.ID, result.Blocks); err != nil {
			return nil, nil, fmt.Errorf("migrate: append blocks failed: %w", err)
		}
	}
	return page, result.Uploads, nil
}

// remapLinks rewrites links to already-migrated pages.  Plain substring
// replacement is enough: source URLs are opaque and never nest.  Keys are
// sorted so a rewrite is deterministic run to run.
func (m *Migrator) remapLinks(content string) string {
	sources := maps.Keys(m.urlmap)
	sort.Strings(sources)
	for _, source := range sources {
		content = strings.ReplaceAll(content, source, m.urlmap[source])
	}
	return content
}

func (m *Migrator) mediaFor(item localcache.CachedItem) map[string]convert.MediaRef {
	if len(item.MediaRefs) == 0 {
		return nil
	}
	media := map[string]convert.MediaRef{}
	for url, ref := range item.MediaRefs {
		media[url] = convert.MediaRef{
			Filename:  ref.Filename,
			LocalPath: m.Store.BlobPath(ref.FileID, ref.Filename),
		}
	}
	return media
}

func (m *Migrator) failItem(itemID string, title string, summary *Summary, cause error) error {
	m.Logger.Printf("🚨 failed to migrate %s: %v\n", itemID, cause)
	if err := m.Records.MarkFailed(itemID, cause); err != nil {
		return fmt.Errorf("migrate: ledger write failed: %w", err)
	}
	summary.Failed++
	summary.Failures = append(summary.Failures, Failure{ItemID: itemID, Title: title, Err: cause})
	return nil
}
