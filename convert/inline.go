package convert

import (
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/toothbrush/nuclino-to-notion/notion"
)

// richTextLimit is Notion's cap on a single rich-text run; longer runs are
// split at the nearest rune boundary.
const richTextLimit = 2000

// renderInlines walks a node's inline children into rich-text runs.  Images
// can't be rich text in Notion, so they come back separately as blocks to be
// placed after the enclosing paragraph.
func (r *renderer) renderInlines(parent ast.Node, style notion.Annotations) ([]notion.RichText, []notion.Block) {
	runs := []notion.RichText{}
	blocks := []notion.Block{}

	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			content := string(n.Segment.Value(r.source))
			if n.HardLineBreak() {
				content += "\n"
			} else if n.SoftLineBreak() {
				content += " "
			}
			runs = append(runs, splitText(content, annotationsOrNil(style))...)

		case *ast.String:
			runs = append(runs, splitText(string(n.Value), annotationsOrNil(style))...)

		case *ast.Emphasis:
			nested := style
			if n.Level >= 2 {
				nested.Bold = true
			} else {
				nested.Italic = true
			}
			childRuns, childBlocks := r.renderInlines(n, nested)
			runs = append(runs, childRuns...)
			blocks = append(blocks, childBlocks...)

		case *east.Strikethrough:
			nested := style
			nested.Strikethrough = true
			childRuns, childBlocks := r.renderInlines(n, nested)
			runs = append(runs, childRuns...)
			blocks = append(blocks, childBlocks...)

		case *ast.CodeSpan:
			nested := style
			nested.Code = true
			runs = append(runs, splitText(r.textOf(n), &nested)...)

		case *ast.Link:
			runs = append(runs, r.linkRun(r.textOf(n), string(n.Destination), style))

		case *ast.AutoLink:
			url := string(n.URL(r.source))
			runs = append(runs, r.linkRun(url, url, style))

		case *ast.Image:
			blocks = append(blocks, r.renderImage(n))

		case *ast.RawHTML:
			// Inline HTML tags carry no Notion equivalent; keep the literal.
			r.warn("html-degraded", "inline HTML kept as literal text")
			runs = append(runs, splitText(r.rawHTMLText(n), annotationsOrNil(style))...)

		default:
			// Salvage the text of anything we don't recognise.
			if literal := r.textOf(child); literal != "" {
				r.warn("unsupported-node", "inline %s rendered as plain text", child.Kind())
				runs = append(runs, splitText(literal, annotationsOrNil(style))...)
			}
		}
	}

	return runs, blocks
}

func (r *renderer) linkRun(content, url string, style notion.Annotations) notion.RichText {
	if content == "" {
		content = url
	}
	run := notion.RichText{
		Type: "text",
		Text: &notion.TextContent{
			Content: content,
			Link:    &notion.Link{URL: url},
		},
		Annotations: annotationsOrNil(style),
		PlainText:   content,
		Href:        url,
	}
	return run
}

// renderImage maps an image onto a block.  Cached media becomes an explicit
// manual-upload placeholder; everything else stays an external embed, which
// is all the public API can do anyway.
func (r *renderer) renderImage(image *ast.Image) notion.Block {
	url := string(image.Destination)

	if ref, ok := r.opts.Media[url]; ok {
		r.uploads = append(r.uploads, PendingUpload{
			Filename:  ref.Filename,
			LocalPath: ref.LocalPath,
		})
		return notion.Block{
			Object: "block",
			Type:   notion.TypeCallout,
			Callout: &notion.CalloutValue{
				Icon: &notion.Icon{Type: "emoji", Emoji: "📎"},
				RichText: []notion.RichText{
					notion.Text("Manual upload needed: "),
					notion.StyledText(ref.Filename, notion.Annotations{Bold: true}),
					notion.Text(" — the Notion API can't attach files, grab it from the local cache."),
				},
			},
		}
	}

	return notion.Block{
		Object: "block",
		Type:   notion.TypeImage,
		Image: &notion.FileValue{
			Type:     "external",
			External: &notion.ExternalFile{URL: url},
		},
	}
}

func (r *renderer) rawHTMLText(n *ast.RawHTML) string {
	out := ""
	for i := 0; i < n.Segments.Len(); i++ {
		segment := n.Segments.At(i)
		out += string(segment.Value(r.source))
	}
	return out
}

// textOf collects the plain text of a node and all its descendants.
func (r *renderer) textOf(node ast.Node) string {
	out := ""
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			out += string(t.Segment.Value(r.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				out += " "
			}
		case *ast.String:
			out += string(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return out
}

func annotationsOrNil(style notion.Annotations) *notion.Annotations {
	if style == (notion.Annotations{}) {
		return nil
	}
	copied := style
	return &copied
}

// splitText chops a string into rich-text runs no longer than Notion's
// per-run limit, never splitting mid-rune.
func splitText(content string, style *notion.Annotations) []notion.RichText {
	if content == "" {
		return nil
	}

	runs := []notion.RichText{}
	for len(content) > richTextLimit {
		split := richTextLimit
		for split > 0 && !utf8.RuneStart(content[split]) {
			split--
		}
		if split == 0 {
			// Invalid UTF-8 with no rune boundary in sight; a hard byte
			// split is the best we can do, and it keeps us moving.
			split = richTextLimit
		}
		runs = append(runs, styledRun(content[:split], style))
		content = content[split:]
	}
	runs = append(runs, styledRun(content, style))
	return runs
}

func styledRun(content string, style *notion.Annotations) notion.RichText {
	run := notion.Text(content)
	if style != nil {
		copied := *style
		run.Annotations = &copied
	}
	return run
}
