package pipeline

import "strings"

// headingScanLimit bounds how far into the article ExtractTitle looks.
const headingScanLimit = 15

// DefaultTitle is the last-resort title when nothing can be extracted.
const DefaultTitle = "Technical Article"

// genericHeadings are section names that never make a good article title.
var genericHeadings = map[string]bool{
	"introduction": true,
	"summary":      true,
	"overview":     true,
	"conclusion":   true,
}

// CleanTitle reduces raw model output to a single bare headline: first
// non-empty line, stripped of Markdown heading markers and wrapping
// quote/bracket characters.
func CleanTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		line = strings.Trim(line, "\"'`“”‘’「」『』[](){}<>")
		return strings.TrimSpace(line)
	}
	return ""
}

// ExtractTitle derives a title from finished article content: the first H1
// within the first 15 lines whose text is non-trivial, else the first
// qualifying H2 that is not a generic section name, else a keyword-triggered
// canned title, else DefaultTitle.
func ExtractTitle(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > headingScanLimit {
		lines = lines[:headingScanLimit]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if title, ok := strings.CutPrefix(line, "# "); ok {
			title = strings.TrimSpace(title)
			if len(title) > 5 {
				return title
			}
		}
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if title, ok := strings.CutPrefix(line, "## "); ok {
			title = strings.TrimSpace(title)
			if len(title) > 5 && !genericHeadings[strings.ToLower(title)] {
				return title
			}
		}
	}
	return guessTitle(content)
}

// guessTitle falls back to canned titles keyed on the article's subject.
func guessTitle(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "generative ai") && strings.Contains(lower, "beginner"):
		return "Generative AI Guide for Beginners"
	case strings.Contains(lower, "python") && strings.Contains(lower, "automation"):
		return "Python Automation Guide for Beginners"
	case strings.Contains(lower, "programming"):
		return "Programming Guide for Beginners"
	default:
		return DefaultTitle
	}
}
