package article

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

const (
	titleSelector   = "h1.article-title"
	contentSelector = "div.content"
	noiseSelector   = "script, style, nav, footer"
)

var newlines = regexp.MustCompile(`\n+`)

// Extract returns the title and body text of an article file. A missing or
// unreadable file yields empty strings. The title falls back to the file
// name, the body is empty when the page has no content block.
func Extract(ctx context.Context, path string) (title, body string) {
	f, err := os.Open(path) // #nosec G304 -- articles are read from the configured blog directory
	if err != nil {
		if !os.IsNotExist(err) {
			logging.From(ctx).Warn("failed to open article", "path", path, "error", err)
		}
		return "", ""
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		logging.From(ctx).Warn("failed to parse article", "path", path, "error", err)
		return "", ""
	}

	title = strings.TrimSpace(doc.Find(titleSelector).First().Text())
	if title == "" {
		title = filepath.Base(path)
	}

	content := doc.Find(contentSelector).First()
	if content.Length() == 0 {
		return title, ""
	}
	content.Find(noiseSelector).Remove()

	var parts []string
	collectText(content, &parts)
	body = newlines.ReplaceAllString(strings.Join(parts, "\n"), "\n")

	return title, strings.TrimSpace(body)
}

// collectText gathers text nodes in document order. Nodes are kept as is,
// inline whitespace included; blank lines are folded by the caller.
func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			*parts = append(*parts, c.Text())
		case "#comment":
		default:
			collectText(c, parts)
		}
	})
}

// List returns the HTML articles in dir, newest first, annotated with cached
// promotion patterns.
func List(ctx context.Context, dir string, analyses map[string][]string) ([]*model.Article, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob articles", goerr.V("dir", dir))
	}

	articles := make([]*model.Article, 0, len(files))
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			logging.From(ctx).Warn("skip unreadable article", "path", file, "error", err)
			continue
		}

		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve article path", goerr.V("path", file))
		}

		name := filepath.Base(file)
		title, _ := Extract(ctx, file)
		if title == "" {
			title = name
		}

		patterns, analyzed := analyses[name]
		if patterns == nil {
			patterns = []string{}
		}

		articles = append(articles, &model.Article{
			Title:      title,
			Path:       abs,
			MTime:      float64(info.ModTime().UnixNano()) / 1e9,
			IsAnalyzed: analyzed,
			Patterns:   patterns,
		})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].MTime > articles[j].MTime
	})

	return articles, nil
}
