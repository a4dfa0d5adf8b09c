package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// settings is the optional YAML file given by --config. Zero values keep the
// built-in defaults.
type settings struct {
	Models          []string `yaml:"models"`
	BaseQuery       string   `yaml:"base_query"`
	HistoryWindow   int      `yaml:"history_window"`
	PrefixLength    int      `yaml:"prefix_length"`
	SearchGrounding *bool    `yaml:"search_grounding"`

	ArticlesDir  string `yaml:"articles_dir"`
	ArchivePath  string `yaml:"archive_path"`
	AnalysisPath string `yaml:"analysis_path"`
}

type settingsKey struct{}

func loadSettings(path string) (*settings, error) {
	s := &settings{}
	if path == "" {
		return s, nil
	}

	// #nosec G304 -- path is given by the user as the settings file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read settings file", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, goerr.Wrap(err, "failed to parse settings file", goerr.V("path", path))
	}
	if err := s.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid settings file", goerr.V("path", path))
	}

	return s, nil
}

// Validate checks value ranges
func (s *settings) Validate() error {
	if s.HistoryWindow < 0 {
		return goerr.New("history_window must not be negative", goerr.V("history_window", s.HistoryWindow))
	}
	if s.PrefixLength < 0 {
		return goerr.New("prefix_length must not be negative", goerr.V("prefix_length", s.PrefixLength))
	}
	for i, m := range s.Models {
		if m == "" {
			return goerr.New("model name is empty", goerr.V("index", i))
		}
	}
	return nil
}

func withSettings(ctx context.Context, s *settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

func settingsFrom(ctx context.Context) *settings {
	if s, ok := ctx.Value(settingsKey{}).(*settings); ok {
		return s
	}
	return &settings{}
}

// pick returns the first non-empty value
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
