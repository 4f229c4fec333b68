package migrate

import (
	"bufio"
	"fmt"
	"io"

	"github.com/toothbrush/nuclino-to-notion/convert"
	"github.com/toothbrush/nuclino-to-notion/internal/termfmt"
	"github.com/toothbrush/nuclino-to-notion/localcache"
	"github.com/toothbrush/nuclino-to-notion/notion"
)

// TerminalPrompter nags a human, loudly, about attachments that need manual
// uploading, and waits for them to press Enter before carrying on.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func (p *TerminalPrompter) ManualUpload(item localcache.CachedItem, page notion.Page, upload convert.PendingUpload) {
	fmt.Fprintf(p.Out, "📎 %v needs %v uploaded by hand (local copy: %s)\n",
		termfmt.Bold().Linked(page.URL).V(item.Title),
		termfmt.Bold().V(upload.Filename),
		upload.LocalPath,
	)

	if p.In == nil {
		return
	}
	fmt.Fprint(p.Out, "   press Enter once it's in place ")
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	_, _ = p.reader.ReadString('\n')
}

// QuietPrompter is for --no-prompt runs; uploads still get logged so the
// information isn't lost, just not shouted.
type QuietPrompter struct {
	Out io.Writer
}

func (p *QuietPrompter) ManualUpload(item localcache.CachedItem, page notion.Page, upload convert.PendingUpload) {
	fmt.Fprintf(p.Out, "pending upload: %s -> %q (%s)\n", upload.Filename, item.Title, upload.LocalPath)
}
