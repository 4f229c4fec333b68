package localcache

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/toothbrush/nuclino-to-notion/nuclino"
)

// Source is the slice of the Nuclino client the builder needs.
type Source interface {
	GetItem(ctx context.Context, id string) (*nuclino.Item, error)
	GetUser(ctx context.Context, id string) (*nuclino.User, error)
	GetFile(ctx context.Context, id string) (*nuclino.File, error)
	DownloadFile(ctx context.Context, downloadURL string) ([]byte, error)
}

// Builder walks a workspace's item tree and snapshots every reachable item,
// author, and attachment into the store.  The walk is deliberately
// sequential: Nuclino's rate limits are tight enough that parallel fetching
// only buys you 429s.
type Builder struct {
	Store  *Store
	Source Source
	Logger *log.Logger

	// AlwaysDownload refetches attachment blobs even when they're already
	// in the store.
	AlwaysDownload bool

	// Quiet suppresses the progress bar.
	Quiet bool
}

// BuildReport summarises one cache run.
type BuildReport struct {
	Items       int
	Collections int
	Users       int
	Blobs       int

	Failures []BuildFailure
}

// BuildFailure is one item we couldn't snapshot.  The walk carries on past
// these; its children are simply unreachable this run.
type BuildFailure struct {
	ItemID string
	Err    error
}

type buildJob struct {
	itemID   string
	parentID string
}

// BuildWorkspace caches the given workspace.  Per-item trouble lands in the
// report; only store writes and context cancellation abort the run.
func (b *Builder) BuildWorkspace(ctx context.Context, ws nuclino.Workspace) (*BuildReport, error) {
	slug, err := Canonicalise(ws.Name)
	if err != nil {
		return nil, fmt.Errorf("localcache: couldn't derive workspace slug: %w", err)
	}

	if err := b.Store.PutWorkspace(CachedWorkspace{
		ID:       ws.ID,
		TeamID:   ws.TeamID,
		Name:     ws.Name,
		Slug:     slug,
		ChildIDs: ws.ChildIDs,
	}); err != nil {
		return nil, fmt.Errorf("localcache: couldn't store workspace header: %w", err)
	}

	report := &BuildReport{}
	seenItems := map[string]bool{}
	seenUsers := map[string]bool{}

	queue := []buildJob{}
	for _, id := range ws.ChildIDs {
		queue = append(queue, buildJob{itemID: id})
	}

	barOpts := []mpb.ContainerOption{mpb.WithWidth(64)}
	if b.Quiet {
		barOpts = append(barOpts, mpb.WithOutput(io.Discard))
	}
	p := mpb.New(barOpts...)
	bar := p.AddBar(int64(len(queue)),
		mpb.PrependDecorators(
			decor.Name("caching:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
			decor.Spinner([]string{" /", " -", " \\", " |"}),
		),
	)

	for len(queue) > 0 {
		if err := context.Cause(ctx); err != nil {
			bar.Abort(true)
			p.Wait()
			return nil, err
		}

		job := queue[0]
		queue = queue[1:]

		if seenItems[job.itemID] {
			bar.Increment()
			continue
		}
		seenItems[job.itemID] = true

		followUps, err := b.cacheItem(ctx, job, report, seenUsers)
		if err != nil {
			if fatal := context.Cause(ctx); fatal != nil {
				bar.Abort(true)
				p.Wait()
				return nil, fatal
			}
			b.Logger.Printf("🚨 couldn't cache item %s: %v\n", job.itemID, err)
			report.Failures = append(report.Failures, BuildFailure{ItemID: job.itemID, Err: err})
			bar.Increment()
			continue
		}

		for _, follow := range followUps {
			if !seenItems[follow.itemID] {
				queue = append(queue, follow)
			}
		}
		bar.SetTotal(bar.Current()+int64(len(queue))+1, false)
		bar.Increment()
	}

	bar.SetTotal(bar.Current(), true)
	p.Wait()

	return report, nil
}

// cacheItem snapshots one item and returns the jobs it discovered.  Children
// of a collection inherit it as parent; merely-linked items are cached too,
// but outside the tree.
func (b *Builder) cacheItem(ctx context.Context, job buildJob, report *BuildReport, seenUsers map[string]bool) ([]buildJob, error) {
	item, err := b.Source.GetItem(ctx, job.itemID)
	if err != nil {
		return nil, fmt.Errorf("localcache: fetch failed: %w", err)
	}

	cached := CachedItem{
		ID:        item.ID,
		ParentID:  job.parentID,
		Kind:      KindPage,
		Title:     item.Title,
		CreatedAt: parseTime(item.CreatedAt),
		UpdatedAt: parseTime(item.LastUpdatedAt),
		URL:       item.URL,
		Content:   item.Content,
		ChildIDs:  item.ChildIDs,
	}
	if item.IsCollection() {
		cached.Kind = KindCollection
	}

	if author := b.cacheUser(ctx, item.CreatedUserID, seenUsers, report); author != "" {
		cached.Author = author
	}

	followUps := []buildJob{}
	for _, childID := range item.ChildIDs {
		followUps = append(followUps, buildJob{itemID: childID, parentID: item.ID})
	}

	if item.ContentMeta != nil {
		// Linked items get cached so cross-links can resolve, but a link
		// isn't parentage.
		for _, linkedID := range item.ContentMeta.ItemIDs {
			followUps = append(followUps, buildJob{itemID: linkedID})
		}

		for _, fileID := range item.ContentMeta.FileIDs {
			ref, err := b.cacheBlob(ctx, fileID, item.Content, report)
			if err != nil {
				return nil, err
			}
			if cached.MediaRefs == nil {
				cached.MediaRefs = map[string]CachedMedia{}
			}
			cached.MediaRefs[ref.key] = ref.media
		}
	}

	if err := b.Store.PutItem(cached); err != nil {
		return nil, err
	}

	if cached.IsCollection() {
		report.Collections++
	} else {
		report.Items++
	}
	return followUps, nil
}

// cacheUser resolves and stores an author, once.  Author lookups are
// best-effort; an account that's gone never blocks the page it wrote.
func (b *Builder) cacheUser(ctx context.Context, userID string, seenUsers map[string]bool, report *BuildReport) string {
	if userID == "" {
		return ""
	}
	if seenUsers[userID] {
		user, err := b.Store.GetUser(userID)
		if err != nil {
			return ""
		}
		return nuclino.User{FirstName: user.FirstName, LastName: user.LastName, Email: user.Email}.DisplayName()
	}
	seenUsers[userID] = true

	user, err := b.Source.GetUser(ctx, userID)
	if err != nil {
		b.Logger.Printf("couldn't resolve author %s: %v\n", userID, err)
		return ""
	}
	if err := b.Store.PutUser(CachedUser{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}); err != nil {
		b.Logger.Printf("couldn't store author %s: %v\n", userID, err)
		return ""
	}
	report.Users++
	return user.DisplayName()
}

type blobRef struct {
	key   string
	media CachedMedia
}

// cacheBlob downloads one attachment into the store.  Download URLs are
// pre-signed and short-lived, so the bytes are fetched right after the
// metadata lookup.
func (b *Builder) cacheBlob(ctx context.Context, fileID string, content string, report *BuildReport) (blobRef, error) {
	file, err := b.Source.GetFile(ctx, fileID)
	if err != nil {
		return blobRef{}, fmt.Errorf("localcache: file metadata lookup failed for %s: %w", fileID, err)
	}

	ref := blobRef{
		key: sourceFileURL(content, fileID),
		media: CachedMedia{
			FileID:   fileID,
			Filename: file.FileName,
		},
	}

	if !b.AlwaysDownload && b.Store.HasBlob(fileID, file.FileName) {
		return ref, nil
	}

	contents, err := b.Source.DownloadFile(ctx, file.Download.URL)
	if err != nil {
		return blobRef{}, fmt.Errorf("localcache: download failed for %s: %w", fileID, err)
	}
	if _, err := b.Store.PutBlob(fileID, file.FileName, contents); err != nil {
		return blobRef{}, err
	}
	report.Blobs++
	return ref, nil
}

// sourceFileURL finds the URL under which a file appears in the item's
// markdown, so the translator can match it by exact link destination.  Falls
// back to the bare file ID when the content never names the file.
func sourceFileURL(content string, fileID string) string {
	idx := strings.Index(content, fileID)
	if idx < 0 {
		return fileID
	}

	start := idx
	for start > 0 && !isURLBoundary(content[start-1]) {
		start--
	}
	end := idx + len(fileID)
	for end < len(content) && !isURLBoundary(content[end]) {
		end++
	}
	return content[start:end]
}

func isURLBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '(', ')', '[', ']', '"', '\'', '<', '>':
		return true
	}
	return false
}

func parseTime(stamp string) time.Time {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
