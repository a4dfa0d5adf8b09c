package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

// DefaultAnalysisFile is the analysis cache file name used when no path is configured
const DefaultAnalysisFile = "analysis_data.json"

// JSONAnalysisCache stores promotion patterns as a JSON object keyed by
// article file name. Like JSONArchive, unreadable content loads as empty.
type JSONAnalysisCache struct {
	path string
}

// NewJSONAnalysisCache creates an analysis cache stored at path
func NewJSONAnalysisCache(path string) *JSONAnalysisCache {
	return &JSONAnalysisCache{path: path}
}

func (c *JSONAnalysisCache) Load(ctx context.Context) (map[string][]string, error) {
	return c.load(ctx), nil
}

func (c *JSONAnalysisCache) load(ctx context.Context) map[string][]string {
	var data map[string][]string
	if _, err := readJSONFile(c.path, &data); err != nil {
		logging.From(ctx).Warn("analysis cache is unreadable, treating as empty",
			"path", c.path,
			"error", err)
		return map[string][]string{}
	}
	if data == nil {
		data = map[string][]string{}
	}
	return data
}

func (c *JSONAnalysisCache) Put(ctx context.Context, name string, patterns []string) error {
	if name == "" {
		return goerr.New("article name is empty")
	}

	data := c.load(ctx)
	data[name] = patterns

	raw, err := encodeJSON(data)
	if err != nil {
		return goerr.Wrap(err, "failed to encode analysis cache")
	}
	if err := writeFileAtomic(c.path, raw, 0o600); err != nil {
		return goerr.Wrap(err, "failed to write analysis cache", goerr.V("path", c.path))
	}

	return nil
}

var _ AnalysisCache = &JSONAnalysisCache{}
