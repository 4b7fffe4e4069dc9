package model

import "strings"

// Section is one titled block of a book description.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ParseDetailSections splits a description into titled sections. Blocks
// separated by blank lines take their first line as the title; otherwise
// each "title：body" or "title: body" line is a section. Text matching
// neither form yields no sections.
func ParseDetailSections(text string) []Section {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	var out []Section
	if strings.Contains(text, "\n\n") {
		for _, block := range strings.Split(text, "\n\n") {
			var lines []string
			for _, l := range strings.Split(block, "\n") {
				if strings.TrimSpace(l) != "" {
					lines = append(lines, l)
				}
			}
			if len(lines) < 2 {
				continue
			}
			out = append(out, Section{
				Title: strings.TrimSpace(lines[0]),
				Body:  strings.TrimSpace(strings.Join(lines[1:], "\n")),
			})
		}
		return out
	}

	for _, l := range strings.Split(text, "\n") {
		title, body, ok := cutTitle(l)
		if !ok {
			continue
		}
		out = append(out, Section{Title: title, Body: body})
	}
	return out
}

func cutTitle(line string) (string, string, bool) {
	for _, sep := range []string{"：", ":"} {
		if t, b, ok := strings.Cut(line, sep); ok {
			t, b = strings.TrimSpace(t), strings.TrimSpace(b)
			if t != "" && b != "" {
				return t, b, true
			}
		}
	}
	return "", "", false
}
