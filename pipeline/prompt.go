package pipeline

import (
	"fmt"
	"strings"
)

// seedQueries feed the title planner with trend signal before wording a
// headline.
var seedQueries = []string{
	"generative AI tips for beginners",
	"programming tutorial getting started",
	"developer productivity tools",
}

// BuildTitlePrompt asks the stage model for exactly one headline, steering it
// away from recently used titles.
func BuildTitlePrompt(request string, recentTitles, searchNotes []string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an SEO editor planning headlines for technical articles.\n")
	sb.WriteString("Produce exactly one headline and nothing else.\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("- A single line, 30 characters or fewer.\n")
	sb.WriteString("- No surrounding quotes or brackets; output the raw string.\n")
	sb.WriteString("- Beginner friendly and practical in tone.\n")
	sb.WriteString("- Include a number or a \"complete guide\" style hook.\n")

	var user strings.Builder
	user.WriteString("Request: " + request + "\n")
	if len(recentTitles) > 0 {
		user.WriteString("\nDo not repeat or closely resemble these recent titles:\n")
		for _, t := range recentTitles {
			user.WriteString(fmt.Sprintf("- %s\n", t))
		}
	}
	if len(searchNotes) > 0 {
		user.WriteString("\nCurrent trend signal:\n")
		for _, n := range searchNotes {
			user.WriteString(fmt.Sprintf("- %s\n", n))
		}
	}
	user.WriteString("\nOutput the headline now.")

	return Prompt{System: sb.String(), User: user.String()}
}

// BuildOutlinePrompt asks the stage model for a heading skeleton.
func BuildOutlinePrompt(title string) Prompt {
	var sb strings.Builder
	sb.WriteString("You design article outlines. Output a Markdown heading skeleton only:\n")
	sb.WriteString("- H2 (##) sections with optional H3 (###) subsections.\n")
	sb.WriteString("- Start with an introduction and end with a conclusion.\n")
	sb.WriteString("- 4 to 7 top-level sections, no prose under the headings.\n")

	user := fmt.Sprintf("Title: %s\nProduce the outline.", title)
	return Prompt{System: sb.String(), User: user}
}
