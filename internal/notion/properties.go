package notion

// Typed decoders over the property sum type. Each returns the decoded
// value and whether the property carried one; unknown kinds and empty
// variants decode to (zero, false) so callers can tell "not set" from
// "empty".

// text decodes title and rich_text properties to their first plain text.
func (p property) text() (string, bool) {
	switch p.Type {
	case "title":
		if len(p.Title) > 0 && p.Title[0].PlainText != "" {
			return p.Title[0].PlainText, true
		}
	case "rich_text":
		if len(p.RichText) > 0 && p.RichText[0].PlainText != "" {
			return p.RichText[0].PlainText, true
		}
	}
	return "", false
}

// checkbox decodes checkbox properties.
func (p property) checkbox() (bool, bool) {
	if p.Type != "checkbox" || p.Checkbox == nil {
		return false, false
	}
	return *p.Checkbox, true
}

// date decodes date properties to their start timestamp.
func (p property) date() (string, bool) {
	if p.Type != "date" || p.Date == nil || p.Date.Start == "" {
		return "", false
	}
	return p.Date.Start, true
}

// multiSelect decodes multi_select properties to the option names,
// preserving source order.
func (p property) multiSelect() ([]string, bool) {
	if p.Type != "multi_select" || len(p.MultiSelect) == 0 {
		return nil, false
	}
	names := make([]string, 0, len(p.MultiSelect))
	for _, opt := range p.MultiSelect {
		names = append(names, opt.Name)
	}
	return names, true
}

// selectValue decodes select properties to the selected option name.
func (p property) selectValue() (string, bool) {
	if p.Type != "select" || p.Select == nil || p.Select.Name == "" {
		return "", false
	}
	return p.Select.Name, true
}

// people decodes people properties to the first person's name.
func (p property) people() (string, bool) {
	if p.Type != "people" || len(p.People) == 0 || p.People[0].Name == "" {
		return "", false
	}
	return p.People[0].Name, true
}
