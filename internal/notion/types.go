// Package notion implements the content fetcher: a client for the Notion
// REST API plus normalization of raw pages into blog posts.
package notion

// Raw wire shapes for the subset of the Notion API this service reads.
// Optional JSON fields are pointers so absence stays distinguishable
// from zero values.

type database struct {
	ID             string                    `json:"id"`
	LastEditedTime string                    `json:"last_edited_time"`
	Properties     map[string]propertySchema `json:"properties"`
}

type propertySchema struct {
	Type string `json:"type"`
}

type page struct {
	ID             string              `json:"id"`
	CreatedTime    string              `json:"created_time"`
	LastEditedTime string              `json:"last_edited_time"`
	Cover          *cover              `json:"cover"`
	Properties     map[string]property `json:"properties"`
}

type cover struct {
	Type     string   `json:"type"`
	External *fileRef `json:"external"`
	File     *fileRef `json:"file"`
}

type fileRef struct {
	URL string `json:"url"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type selectOption struct {
	Name string `json:"name"`
}

type person struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

// property is a sum over the known Notion property kinds; Type selects
// which variant field is populated.
type property struct {
	Type        string         `json:"type"`
	Title       []richText     `json:"title"`
	RichText    []richText     `json:"rich_text"`
	Checkbox    *bool          `json:"checkbox"`
	Date        *dateValue     `json:"date"`
	MultiSelect []selectOption `json:"multi_select"`
	Select      *selectOption  `json:"select"`
	People      []person       `json:"people"`
}

type queryRequest struct {
	Filter      map[string]any `json:"filter,omitempty"`
	Sorts       []sortSpec     `json:"sorts,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

type sortSpec struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type block struct {
	Type             string      `json:"type"`
	Paragraph        *richBlock  `json:"paragraph"`
	Heading1         *richBlock  `json:"heading_1"`
	Heading2         *richBlock  `json:"heading_2"`
	Heading3         *richBlock  `json:"heading_3"`
	BulletedListItem *richBlock  `json:"bulleted_list_item"`
	NumberedListItem *richBlock  `json:"numbered_list_item"`
	Quote            *richBlock  `json:"quote"`
	Code             *codeBlock  `json:"code"`
	Image            *imageBlock `json:"image"`
}

type richBlock struct {
	RichText []richText `json:"rich_text"`
}

type codeBlock struct {
	RichText []richText `json:"rich_text"`
	Language string     `json:"language"`
}

type imageBlock struct {
	Type     string   `json:"type"`
	External *fileRef `json:"external"`
	File     *fileRef `json:"file"`
}

type blockChildrenResponse struct {
	Results    []block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}
