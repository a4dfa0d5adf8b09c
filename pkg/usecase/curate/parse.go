package curate

import (
	"regexp"
	"strings"

	"github.com/mochisura/marketer/pkg/model"
)

var (
	tagPatterns      = map[string]*regexp.Regexp{}
	fallbackPatterns = map[string]*regexp.Regexp{}
	// a fallback section ends at the next line starting with a letter or a tag
	sectionEnd = regexp.MustCompile(`(?i)\n[a-z]|\n<`)
)

var sectionTags = []string{"Analysis", "Summary", "Source", "Commentary"}

func init() {
	for _, tag := range sectionTags {
		tagPatterns[tag] = regexp.MustCompile(`(?is)<` + tag + `>(.*?)</` + tag + `>`)
		fallbackPatterns[tag] = regexp.MustCompile(`(?i)` + tag + `[:：]`)
	}
}

// extractSection returns the trimmed content of <Tag>...</Tag>, or of a
// "Tag:" line block when the model ignored the tags.
func extractSection(tag, text string) string {
	if m := tagPatterns[tag].FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	loc := fallbackPatterns[tag].FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if end := sectionEnd.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest)
}

func parseCuration(text string) *model.Curation {
	c := &model.Curation{
		Analysis:   extractSection("Analysis", text),
		Summary:    extractSection("Summary", text),
		Source:     extractSection("Source", text),
		Commentary: extractSection("Commentary", text),
		Raw:        text,
	}
	c.Structured = c.Analysis != "" || c.Summary != ""
	return c
}
