package notion

// JSON shapes of the Notion API (2022-06-28), restricted to the objects the
// translator actually emits.  See https://developers.notion.com/reference.

// Block kinds we produce.
const (
	TypeParagraph        = "paragraph"
	TypeHeading1         = "heading_1"
	TypeHeading2         = "heading_2"
	TypeHeading3         = "heading_3"
	TypeBulletedListItem = "bulleted_list_item"
	TypeNumberedListItem = "numbered_list_item"
	TypeQuote            = "quote"
	TypeCode             = "code"
	TypeCallout          = "callout"
	TypeDivider          = "divider"
	TypeImage            = "image"
	TypeTable            = "table"
	TypeTableRow         = "table_row"
)

// Block is one Notion content block.  Exactly one of the typed value fields
// is set, matching Type.
type Block struct {
	Object string `json:"object,omitempty"`
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`

	Paragraph        *RichTextValue `json:"paragraph,omitempty"`
	Heading1         *HeadingValue  `json:"heading_1,omitempty"`
	Heading2         *HeadingValue  `json:"heading_2,omitempty"`
	Heading3         *HeadingValue  `json:"heading_3,omitempty"`
	BulletedListItem *RichTextValue `json:"bulleted_list_item,omitempty"`
	NumberedListItem *RichTextValue `json:"numbered_list_item,omitempty"`
	Quote            *RichTextValue `json:"quote,omitempty"`
	Code             *CodeValue     `json:"code,omitempty"`
	Callout          *CalloutValue  `json:"callout,omitempty"`
	Divider          *struct{}      `json:"divider,omitempty"`
	Image            *FileValue     `json:"image,omitempty"`
	Table            *TableValue    `json:"table,omitempty"`
	TableRow         *TableRowValue `json:"table_row,omitempty"`
}

// RichTextValue backs paragraphs, quotes and list items: styled text plus
// optional nested blocks.
type RichTextValue struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// HeadingValue is a heading's content.  Notion only knows three levels.
type HeadingValue struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
}

type CodeValue struct {
	Caption  []RichText `json:"caption"`
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language,omitempty"`
}

type CalloutValue struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
}

type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// FileValue is an externally hosted file, the only kind the public API can
// attach to an image block.
type FileValue struct {
	Type     string        `json:"type"`
	External *ExternalFile `json:"external,omitempty"`
}

type ExternalFile struct {
	URL string `json:"url"`
}

type TableValue struct {
	TableWidth      int     `json:"table_width"`
	HasColumnHeader bool    `json:"has_column_header"`
	HasRowHeader    bool    `json:"has_row_header"`
	Children        []Block `json:"children,omitempty"`
}

type TableRowValue struct {
	Cells [][]RichText `json:"cells"`
}

// RichText is one styled text run.
type RichText struct {
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Mention     *Mention     `json:"mention,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Mention struct {
	Type string       `json:"type"`
	Page *PageMention `json:"page,omitempty"`
}

type PageMention struct {
	ID string `json:"id"`
}

type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// Text is a convenience constructor for an unstyled text run.
func Text(content string) RichText {
	return RichText{
		Type:      "text",
		Text:      &TextContent{Content: content},
		PlainText: content,
	}
}

// StyledText builds a text run carrying the given annotations.
func StyledText(content string, style Annotations) RichText {
	rt := Text(content)
	rt.Annotations = &style
	return rt
}

// Property is a page property; we only ever set titles.
type Property struct {
	ID    string     `json:"id,omitempty"`
	Type  string     `json:"type,omitempty"`
	Title []RichText `json:"title,omitempty"`
}

// TitleProperty builds the standard title property map for page creation.
func TitleProperty(title string) map[string]Property {
	return map[string]Property{
		"title": {Title: []RichText{Text(title)}},
	}
}

// Page is a created Notion page, as much of it as we care about.
type Page struct {
	Object     string              `json:"object,omitempty"`
	ID         string              `json:"id"`
	URL        string              `json:"url,omitempty"`
	Parent     *Parent             `json:"parent,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
}

type Parent struct {
	Type   string `json:"type,omitempty"`
	PageID string `json:"page_id,omitempty"`
}

// PageMentionItem builds a bulleted list item containing a mention link to a
// migrated page; collections are rendered as lists of these.
func PageMentionItem(page Page, title string) Block {
	mention := RichText{
		Type: "mention",
		Mention: &Mention{
			Type: "page",
			Page: &PageMention{ID: page.ID},
		},
		PlainText: title,
		Href:      page.URL,
	}
	return Block{
		Object: "block",
		Type:   TypeBulletedListItem,
		BulletedListItem: &RichTextValue{
			RichText: []RichText{mention},
		},
	}
}
