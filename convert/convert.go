// Package convert turns Nuclino markdown into Notion block trees.
//
// The whole package is pure computation: no I/O, no clients, deterministic
// for a given input.  That's what makes re-translation on retry safe, and
// what keeps the tests honest.
//
// Fidelity loss is acceptable, content loss is not: every markdown node ends
// up in some Notion block, even if that block is a plain-text rendering of
// something Notion has no concept for.  Each such downgrade is reported as a
// Warning rather than an error.
package convert

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/toothbrush/nuclino-to-notion/notion"
)

// DefaultMaxListDepth is how deeply nested we'll let list items be.  The
// Notion append endpoint accepts two levels of nesting in one request;
// anything deeper gets flattened into indented text lines.
const DefaultMaxListDepth = 2

// MediaRef identifies a media blob we hold in the local cache, keyed in
// Options.Media by the URL as it appears in the markdown.
type MediaRef struct {
	Filename  string
	LocalPath string
}

// Options tune a conversion.
type Options struct {
	// MaxListDepth is the deepest list nesting the destination supports.
	// Zero means DefaultMaxListDepth.
	MaxListDepth int

	// Media maps in-content URLs to cached blobs.  Images pointing at these
	// become manual-upload placeholders instead of external image embeds.
	Media map[string]MediaRef
}

func (o Options) maxListDepth() int {
	if o.MaxListDepth <= 0 {
		return DefaultMaxListDepth
	}
	return o.MaxListDepth
}

// Warning reports that a node was rendered with reduced fidelity.
type Warning struct {
	Kind   string
	Detail string
}

// PendingUpload is a media blob the operator has to push into Notion by hand.
type PendingUpload struct {
	Filename  string
	LocalPath string
}

// Result of a conversion.
type Result struct {
	Blocks   []notion.Block
	Warnings []Warning
	Uploads  []PendingUpload
}

// Convert renders a markdown document as Notion blocks.  It never fails: an
// empty or unparseable document simply yields no blocks.
func Convert(input string, opts Options) Result {
	parser := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
	source := []byte(input)
	doc := parser.Parse(text.NewReader(source))

	r := &renderer{
		source: source,
		opts:   opts,
	}
	blocks := r.renderChildren(doc)

	return Result{
		Blocks:   blocks,
		Warnings: r.warnings,
		Uploads:  r.uploads,
	}
}

type renderer struct {
	source   []byte
	opts     Options
	warnings []Warning
	uploads  []PendingUpload
}

func (r *renderer) warn(kind, format string, a ...any) {
	r.warnings = append(r.warnings, Warning{Kind: kind, Detail: fmt.Sprintf(format, a...)})
}

func (r *renderer) renderChildren(parent ast.Node) []notion.Block {
	blocks := []notion.Block{}
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		blocks = append(blocks, r.renderNode(child)...)
	}
	return blocks
}

// renderNode maps one block-level markdown node onto one or more Notion
// blocks.  Anything unrecognised degrades to a plain paragraph of its
// literal text.
func (r *renderer) renderNode(node ast.Node) []notion.Block {
	switch n := node.(type) {
	case *ast.Heading:
		return r.renderHeading(n)
	case *ast.Paragraph:
		return r.renderParagraph(n)
	case *ast.TextBlock:
		return r.renderParagraph(n)
	case *ast.List:
		return r.renderList(n, 1)
	case *ast.FencedCodeBlock:
		return r.renderFencedCode(n)
	case *ast.CodeBlock:
		return r.renderIndentedCode(n)
	case *ast.Blockquote:
		return r.renderQuote(n)
	case *ast.ThematicBreak:
		return []notion.Block{{Object: "block", Type: notion.TypeDivider, Divider: &struct{}{}}}
	case *ast.HTMLBlock:
		return r.renderHTML(n)
	case *east.Table:
		return r.renderTable(n)
	default:
		// Never drop content.  Whatever this is, keep its text.
		r.warn("unsupported-node", "%s rendered as plain text", node.Kind())
		literal := r.textOf(node)
		if literal == "" {
			return nil
		}
		return []notion.Block{paragraphOf(splitText(literal, nil))}
	}
}

func (r *renderer) renderHeading(heading *ast.Heading) []notion.Block {
	rich, extra := r.renderInlines(heading, notion.Annotations{})
	value := &notion.HeadingValue{RichText: rich}

	block := notion.Block{Object: "block"}
	switch heading.Level {
	case 1:
		block.Type = notion.TypeHeading1
		block.Heading1 = value
	case 2:
		block.Type = notion.TypeHeading2
		block.Heading2 = value
	default:
		// Notion stops at three heading levels; clamp the rest.
		if heading.Level > 3 {
			r.warn("heading-clamped", "heading level %d clamped to 3", heading.Level)
		}
		block.Type = notion.TypeHeading3
		block.Heading3 = value
	}

	return append([]notion.Block{block}, extra...)
}

func (r *renderer) renderParagraph(para ast.Node) []notion.Block {
	rich, extra := r.renderInlines(para, notion.Annotations{})
	if len(rich) == 0 {
		// Nothing but images (or nothing at all); don't emit an empty graf.
		return extra
	}
	return append([]notion.Block{paragraphOf(rich)}, extra...)
}

func (r *renderer) renderList(list *ast.List, depth int) []notion.Block {
	blocks := []notion.Block{}
	for child := list.FirstChild(); child != nil; child = child.NextSibling() {
		item, ok := child.(*ast.ListItem)
		if !ok {
			blocks = append(blocks, r.renderNode(child)...)
			continue
		}
		blocks = append(blocks, r.renderListItem(item, list.IsOrdered(), depth))
	}
	return blocks
}

func (r *renderer) renderListItem(item *ast.ListItem, ordered bool, depth int) notion.Block {
	value := &notion.RichTextValue{}

	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.TextBlock, *ast.Paragraph:
			rich, extra := r.renderInlines(n, notion.Annotations{})
			if len(value.RichText) == 0 {
				value.RichText = rich
			} else {
				value.Children = append(value.Children, paragraphOf(rich))
			}
			value.Children = append(value.Children, extra...)
		case *ast.List:
			if depth >= r.opts.maxListDepth() {
				// The destination can't nest further.  Flatten the subtree
				// into indented text lines; losing indentation beats losing
				// items.
				r.warn("list-flattened", "list nested deeper than %d flattened to text", r.opts.maxListDepth())
				value.RichText = append(value.RichText, r.flattenList(n, 1)...)
			} else {
				value.Children = append(value.Children, r.renderList(n, depth+1)...)
			}
		default:
			value.Children = append(value.Children, r.renderNode(child)...)
		}
	}

	block := notion.Block{Object: "block"}
	if ordered {
		block.Type = notion.TypeNumberedListItem
		block.NumberedListItem = value
	} else {
		block.Type = notion.TypeBulletedListItem
		block.BulletedListItem = value
	}
	return block
}

// flattenList renders a too-deep list as newline-separated, indent-prefixed
// text runs appended to the deepest representable item.
func (r *renderer) flattenList(list *ast.List, indent int) []notion.RichText {
	runs := []notion.RichText{}
	for child := list.FirstChild(); child != nil; child = child.NextSibling() {
		item, ok := child.(*ast.ListItem)
		if !ok {
			continue
		}

		line := "\n" + strings.Repeat("    ", indent) + "• "
		runs = append(runs, notion.Text(line))

		for grandchild := item.FirstChild(); grandchild != nil; grandchild = grandchild.NextSibling() {
			switch n := grandchild.(type) {
			case *ast.List:
				runs = append(runs, r.flattenList(n, indent+1)...)
			case *ast.TextBlock, *ast.Paragraph:
				rich, _ := r.renderInlines(n, notion.Annotations{})
				runs = append(runs, rich...)
			default:
				if literal := r.textOf(grandchild); literal != "" {
					runs = append(runs, notion.Text(literal))
				}
			}
		}
	}
	return runs
}

func (r *renderer) renderFencedCode(code *ast.FencedCodeBlock) []notion.Block {
	language := "plain text"
	if lang := code.Language(r.source); len(lang) > 0 {
		language = string(lang)
	}
	return []notion.Block{codeBlock(r.linesOf(code), language)}
}

func (r *renderer) renderIndentedCode(code *ast.CodeBlock) []notion.Block {
	return []notion.Block{codeBlock(r.linesOf(code), "plain text")}
}

func (r *renderer) renderQuote(quote *ast.Blockquote) []notion.Block {
	// Flatten the quote's paragraphs into one rich-text body, line-broken.
	rich := []notion.RichText{}
	extra := []notion.Block{}
	for child := quote.FirstChild(); child != nil; child = child.NextSibling() {
		if len(rich) > 0 {
			rich = append(rich, notion.Text("\n"))
		}
		childRich, childExtra := r.renderInlines(child, notion.Annotations{})
		rich = append(rich, childRich...)
		extra = append(extra, childExtra...)
	}

	block := notion.Block{
		Object: "block",
		Type:   notion.TypeQuote,
		Quote:  &notion.RichTextValue{RichText: rich},
	}
	return append([]notion.Block{block}, extra...)
}

// renderHTML degrades raw HTML to markdown-ish text.  Notion has no raw-HTML
// block, and dropping the content is not on the table.
func (r *renderer) renderHTML(html *ast.HTMLBlock) []notion.Block {
	raw := r.linesOf(html)
	if html.HasClosure() {
		raw += string(html.ClosureLine.Value(r.source))
	}

	rendered := raw
	if converted, err := md.NewConverter("", true, nil).ConvertString(raw); err == nil && strings.TrimSpace(converted) != "" {
		rendered = converted
	}
	rendered = strings.TrimSpace(rendered)
	if rendered == "" {
		return nil
	}

	r.warn("html-degraded", "raw HTML block rendered as text")
	return []notion.Block{paragraphOf(splitText(rendered, nil))}
}

func (r *renderer) renderTable(table *east.Table) []notion.Block {
	rows := []notion.Block{}
	width := 1
	hasHeader := false

	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case east.KindTableHeader:
			hasHeader = true
		case east.KindTableRow:
		default:
			continue
		}

		cells := [][]notion.RichText{}
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			rich, _ := r.renderInlines(cell, notion.Annotations{})
			cells = append(cells, rich)
		}
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, notion.Block{
			Object:   "block",
			Type:     notion.TypeTableRow,
			TableRow: &notion.TableRowValue{Cells: cells},
		})
	}

	// Notion insists every row is exactly table_width wide; markdown doesn't.
	for _, row := range rows {
		for len(row.TableRow.Cells) < width {
			row.TableRow.Cells = append(row.TableRow.Cells, []notion.RichText{})
		}
	}

	return []notion.Block{{
		Object: "block",
		Type:   notion.TypeTable,
		Table: &notion.TableValue{
			TableWidth:      width,
			HasColumnHeader: hasHeader,
			Children:        rows,
		},
	}}
}

// linesOf concatenates a block node's raw source lines.
func (r *renderer) linesOf(node ast.Node) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(r.source))
	}
	return sb.String()
}

func paragraphOf(rich []notion.RichText) notion.Block {
	return notion.Block{
		Object:    "block",
		Type:      notion.TypeParagraph,
		Paragraph: &notion.RichTextValue{RichText: rich},
	}
}

func codeBlock(content, language string) notion.Block {
	return notion.Block{
		Object: "block",
		Type:   notion.TypeCode,
		Code: &notion.CodeValue{
			Caption:  []notion.RichText{},
			RichText: splitText(strings.TrimSuffix(content, "\n"), nil),
			Language: language,
		},
	}
}
