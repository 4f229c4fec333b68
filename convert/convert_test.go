package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toothbrush/nuclino-to-notion/notion"
)

func TestRichTextStyles(t *testing.T) {
	input := "This _markdown_ file has *only* some `text` styles in it, ~~not much~~ nothing more."
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 1)
	para := result.Blocks[0].Paragraph
	require.NotNil(t, para)

	assert.Equal(t,
		"This markdown file has only some text styles in it, not much nothing more.",
		plainTextRuns(para.RichText))

	styleOf := func(content string) *notion.Annotations {
		for _, run := range para.RichText {
			if run.Text != nil && run.Text.Content == content {
				return run.Annotations
			}
		}
		t.Fatalf("no run with content %q", content)
		return nil
	}

	assert.True(t, styleOf("markdown").Italic)
	assert.True(t, styleOf("only").Italic)
	assert.True(t, styleOf("text").Code)
	assert.True(t, styleOf("not much").Strikethrough)
	assert.Nil(t, styleOf("This "))
}

func TestBoldLinkAndInlineCode(t *testing.T) {
	input := "See **the [docs](https://example.com/docs)** and run `make`."
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 1)
	runs := result.Blocks[0].Paragraph.RichText

	var link *notion.RichText
	for i := range runs {
		if runs[i].Href != "" {
			link = &runs[i]
		}
	}
	require.NotNil(t, link, "expected a link run")
	assert.Equal(t, "https://example.com/docs", link.Text.Link.URL)
	assert.Equal(t, "docs", link.Text.Content)
}

func TestBulletedList(t *testing.T) {
	input := strings.Join([]string{"- one", "- two", "- three", "- four"}, "\n")
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 4)
	for i, block := range result.Blocks {
		require.Equal(t, notion.TypeBulletedListItem, block.Type, "block %d", i)
		require.NotNil(t, block.BulletedListItem)
	}
	assert.Equal(t, "one", result.Blocks[0].BulletedListItem.RichText[0].Text.Content)
	assert.Equal(t, "four", result.Blocks[3].BulletedListItem.RichText[0].Text.Content)
}

func TestOrderedListWithChildren(t *testing.T) {
	input := "1. first\n    - nested a\n    - nested b\n2. second\n"
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 2)
	first := result.Blocks[0]
	require.Equal(t, notion.TypeNumberedListItem, first.Type)
	require.Len(t, first.NumberedListItem.Children, 2)
	assert.Equal(t, notion.TypeBulletedListItem, first.NumberedListItem.Children[0].Type)
	assert.Empty(t, result.Blocks[1].NumberedListItem.Children)
}

func TestHeadingLevelsClampToThree(t *testing.T) {
	input := "# One\n\n## Two\n\n### Three\n\n##### Five\n"
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 4)
	assert.Equal(t, notion.TypeHeading1, result.Blocks[0].Type)
	assert.Equal(t, notion.TypeHeading2, result.Blocks[1].Type)
	assert.Equal(t, notion.TypeHeading3, result.Blocks[2].Type)
	assert.Equal(t, notion.TypeHeading3, result.Blocks[3].Type)

	require.True(t, hasWarning(result, "heading-clamped"))
}

func TestSiblingOrderIsPreserved(t *testing.T) {
	input := "alpha\n\nbravo\n\ncharlie\n\ndelta\n"
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 4)
	want := []string{"alpha", "bravo", "charlie", "delta"}
	for i, block := range result.Blocks {
		assert.Equal(t, want[i], block.Paragraph.RichText[0].Text.Content)
	}
}

func TestDeepListIsFlattenedNotDropped(t *testing.T) {
	lines := []string{}
	labels := []string{"level1", "level2", "level3", "level4", "level5", "level6"}
	for i, label := range labels {
		lines = append(lines, strings.Repeat("    ", i)+"- "+label)
	}
	input := strings.Join(lines, "\n")

	result := Convert(input, Options{MaxListDepth: 4})

	// Every single item must survive somewhere in the output.
	text := plainText(result.Blocks)
	for _, label := range labels {
		assert.Contains(t, text, label, "item %q was silently dropped", label)
	}

	// The first four levels keep their list structure...
	depth := 0
	block := result.Blocks[0]
	for {
		depth++
		value := block.BulletedListItem
		require.NotNil(t, value)
		assert.Contains(t, plainTextRuns(value.RichText), labels[depth-1])
		if len(value.Children) == 0 {
			break
		}
		block = value.Children[0]
	}
	assert.Equal(t, 4, depth)

	// ...and the overflow is indented text inside level 4.
	leaf := block.BulletedListItem
	assert.Contains(t, plainTextRuns(leaf.RichText), "• ")
	assert.True(t, hasWarning(result, "list-flattened"))
}

func TestCachedImageBecomesUploadPlaceholder(t *testing.T) {
	input := "Intro text.\n\n![diagram](https://files.nuclino.com/files/abc123)\n"
	result := Convert(input, Options{
		Media: map[string]MediaRef{
			"https://files.nuclino.com/files/abc123": {
				Filename:  "diagram.png",
				LocalPath: "/tmp/store/files/abc123_diagram.png",
			},
		},
	})

	require.Len(t, result.Blocks, 2)
	callout := result.Blocks[1]
	require.Equal(t, notion.TypeCallout, callout.Type)
	assert.Contains(t, plainTextRuns(callout.Callout.RichText), "diagram.png")

	require.Len(t, result.Uploads, 1)
	assert.Equal(t, "diagram.png", result.Uploads[0].Filename)
	assert.Equal(t, "/tmp/store/files/abc123_diagram.png", result.Uploads[0].LocalPath)
}

func TestForeignImageStaysExternal(t *testing.T) {
	input := "![kitten](https://example.com/kitten.jpg)\n"
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 1)
	require.Equal(t, notion.TypeImage, result.Blocks[0].Type)
	assert.Equal(t, "https://example.com/kitten.jpg", result.Blocks[0].Image.External.URL)
	assert.Empty(t, result.Uploads)
}

func TestFencedCode(t *testing.T) {
	input := "```go\nfunc main() {}\n```\n"
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 1)
	code := result.Blocks[0].Code
	require.NotNil(t, code)
	assert.Equal(t, "go", code.Language)
	assert.Equal(t, "func main() {}", code.RichText[0].Text.Content)
}

func TestQuoteAndDivider(t *testing.T) {
	input := "> wise words\n> more words\n\n---\n"
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 2)
	assert.Equal(t, notion.TypeQuote, result.Blocks[0].Type)
	assert.Equal(t, notion.TypeDivider, result.Blocks[1].Type)
}

func TestTable(t *testing.T) {
	input := "| name | age |\n|------|-----|\n| ada | 36 |\n| lin | 28 |\n"
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 1)
	table := result.Blocks[0].Table
	require.NotNil(t, table)
	assert.Equal(t, 2, table.TableWidth)
	assert.True(t, table.HasColumnHeader)
	require.Len(t, table.Children, 3)
	assert.Equal(t, "ada", table.Children[1].TableRow.Cells[0][0].Text.Content)
}

func TestHTMLDegradesToText(t *testing.T) {
	input := "<div>hello <b>world</b></div>\n"
	result := Convert(input, Options{})

	require.NotEmpty(t, result.Blocks)
	text := plainText(result.Blocks)
	assert.Contains(t, text, "hello")
	assert.Contains(t, text, "world")
	assert.True(t, hasWarning(result, "html-degraded"))
}

func TestLongTextIsSplitAtRuneBoundaries(t *testing.T) {
	input := strings.Repeat("ü", 2500)
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 1)
	runs := result.Blocks[0].Paragraph.RichText
	require.Greater(t, len(runs), 1)

	total := ""
	for _, run := range runs {
		assert.LessOrEqual(t, len(run.Text.Content), richTextLimit)
		total += run.Text.Content
	}
	assert.Equal(t, input, total)
}

func TestInvalidUTF8StillSplitsAndTerminates(t *testing.T) {
	// Continuation bytes with no rune start anywhere; the splitter has no
	// boundary to back up to and must hard-split instead of spinning.
	input := strings.Repeat("\x80", 2100)
	result := Convert(input, Options{})

	require.Len(t, result.Blocks, 1)
	runs := result.Blocks[0].Paragraph.RichText
	require.Len(t, runs, 2)

	total := ""
	for _, run := range runs {
		assert.LessOrEqual(t, len(run.Text.Content), richTextLimit)
		total += run.Text.Content
	}
	assert.Equal(t, input, total)
}

func TestConvertIsDeterministic(t *testing.T) {
	input := "# Title\n\nSome *text* with a [link](https://example.com).\n\n- a\n- b\n"
	first := Convert(input, Options{})
	second := Convert(input, Options{})
	assert.Equal(t, first, second)
}

func TestEmptyInputYieldsNoBlocks(t *testing.T) {
	result := Convert("", Options{})
	assert.Empty(t, result.Blocks)
	assert.Empty(t, result.Warnings)
}

func hasWarning(result Result, kind string) bool {
	for _, w := range result.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

func plainTextRuns(runs []notion.RichText) string {
	out := ""
	for _, run := range runs {
		if run.Text != nil {
			out += run.Text.Content
		}
	}
	return out
}

func plainText(blocks []notion.Block) string {
	out := ""
	for _, block := range blocks {
		for _, value := range []*notion.RichTextValue{block.Paragraph, block.BulletedListItem, block.NumberedListItem, block.Quote} {
			if value == nil {
				continue
			}
			out += plainTextRuns(value.RichText)
			out += plainText(value.Children)
		}
		if block.Callout != nil {
			out += plainTextRuns(block.Callout.RichText)
		}
		if block.Code != nil {
			out += plainTextRuns(block.Code.RichText)
		}
	}
	return out
}
