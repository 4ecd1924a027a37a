package notion

import "strings"

// blocksToMarkdown renders a page's blocks as markdown text. Only the
// block kinds a blog post actually uses are handled; anything else is
// skipped.
func blocksToMarkdown(blocks []block) string {
	var parts []string
	for i := range blocks {
		if line, ok := blockToMarkdown(&blocks[i]); ok {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "\n\n")
}

func blockToMarkdown(b *block) (string, bool) {
	switch b.Type {
	case "paragraph":
		if b.Paragraph == nil {
			return "", false
		}
		return plainText(b.Paragraph.RichText), true
	case "heading_1":
		if b.Heading1 == nil {
			return "", false
		}
		return "# " + plainText(b.Heading1.RichText), true
	case "heading_2":
		if b.Heading2 == nil {
			return "", false
		}
		return "## " + plainText(b.Heading2.RichText), true
	case "heading_3":
		if b.Heading3 == nil {
			return "", false
		}
		return "### " + plainText(b.Heading3.RichText), true
	case "bulleted_list_item":
		if b.BulletedListItem == nil {
			return "", false
		}
		return "- " + plainText(b.BulletedListItem.RichText), true
	case "numbered_list_item":
		if b.NumberedListItem == nil {
			return "", false
		}
		return "1. " + plainText(b.NumberedListItem.RichText), true
	case "quote":
		if b.Quote == nil {
			return "", false
		}
		return "> " + plainText(b.Quote.RichText), true
	case "code":
		if b.Code == nil {
			return "", false
		}
		return "```" + b.Code.Language + "\n" + plainText(b.Code.RichText) + "\n```", true
	case "image":
		if b.Image == nil {
			return "", false
		}
		if b.Image.External != nil && b.Image.External.URL != "" {
			return "![](" + b.Image.External.URL + ")", true
		}
		if b.Image.File != nil && b.Image.File.URL != "" {
			return "![](" + b.Image.File.URL + ")", true
		}
		return "", false
	case "divider":
		return "---", true
	}
	return "", false
}

func plainText(texts []richText) string {
	var sb strings.Builder
	for _, t := range texts {
		sb.WriteString(t.PlainText)
	}
	return sb.String()
}
