package article

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

const (
	excerptSelector = "p.article-excerpt"
	tagSelector     = "span.tag"

	// excerptLength is the number of content characters used when an article
	// has no excerpt paragraph
	excerptLength = 150
)

// BuildIndex scans dir for HTML articles and returns search entries in file
// name order. URLs are relative to the blog root ("articles/<file>").
// Articles that cannot be read are logged and skipped.
func BuildIndex(ctx context.Context, dir string) ([]*model.SearchEntry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, goerr.Wrap(err, "articles directory not found", goerr.V("dir", dir))
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob articles", goerr.V("dir", dir))
	}

	entries := make([]*model.SearchEntry, 0, len(files))
	for _, file := range files {
		entry, err := indexEntry(file)
		if err != nil {
			logging.From(ctx).Warn("skip article", "path", file, "error", err)
			continue
		}
		entries = append(entries, entry)
		logging.From(ctx).Debug("indexed article", "path", file)
	}

	return entries, nil
}

func indexEntry(path string) (*model.SearchEntry, error) {
	f, err := os.Open(path) // #nosec G304 -- articles are read from the configured blog directory
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open article")
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse article")
	}

	name := filepath.Base(path)
	title := strings.TrimSpace(doc.Find(titleSelector).First().Text())
	if title == "" {
		title = strings.TrimSuffix(strings.ReplaceAll(name, "-", " "), ".html")
	}

	excerpt := strings.TrimSpace(doc.Find(excerptSelector).First().Text())

	tags := []string{}
	doc.Find(tagSelector).Each(func(_ int, s *goquery.Selection) {
		tags = append(tags, strings.TrimSpace(s.Text()))
	})

	content := flatText(doc.Find(contentSelector).First())

	shown := excerpt
	if shown == "" {
		shown = truncate(content, excerptLength) + "..."
	}

	searchable := strings.Join([]string{title, excerpt, strings.Join(tags, " "), content}, " ")

	return &model.SearchEntry{
		Title:         title,
		Excerpt:       shown,
		Tags:          tags,
		URL:           "articles/" + name,
		SearchContent: strings.ToLower(searchable),
	}, nil
}

// flatText returns the text of sel on one line with whitespace collapsed.
// Scripts and styles are dropped.
func flatText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	sel.Find("script, style").Remove()

	var parts []string
	collectText(sel, &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
