package promote

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/adapter"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/repository"
	"github.com/mochisura/marketer/pkg/service/article"
	"github.com/mochisura/marketer/pkg/utils/logging"
	"google.golang.org/genai"
)

var (
	ErrEmptyArticle = goerr.New("article body not found")

	patternSeparator = regexp.MustCompile(`パターン\p{Nd}[:：]`)
)

// DefaultModels are tried in order until one is not rate limited
var DefaultModels = []string{"gemini-2.5-flash", "gemini-1.5-flash", "gemini-1.5-pro"}

// PatternCount is the number of promotional patterns kept per article
const PatternCount = 3

// UseCase generates promotional copy for blog articles
type UseCase struct {
	gemini adapter.Gemini
	cache  repository.AnalysisCache
	models []string
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithModels sets the model fallback order
func WithModels(models ...string) Option {
	return func(uc *UseCase) {
		if len(models) > 0 {
			uc.models = models
		}
	}
}

// New creates a new promote UseCase instance
func New(gemini adapter.Gemini, cache repository.AnalysisCache, opts ...Option) *UseCase {
	uc := &UseCase{
		gemini: gemini,
		cache:  cache,
		models: DefaultModels,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Generate produces promotional patterns for the article at path without
// caching them.
func (u *UseCase) Generate(ctx context.Context, path string) (*model.Promotion, error) {
	title, body := article.Extract(ctx, path)
	if body == "" {
		return nil, goerr.Wrap(ErrEmptyArticle, "cannot promote article", goerr.V("path", path))
	}

	prompt := buildPrompt(title, body)
	text, modelUsed, err := u.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parsePromotion(text, modelUsed), nil
}

// Analyze generates patterns and caches them when the response had the
// expected structure.
func (u *UseCase) Analyze(ctx context.Context, path string) (*model.Promotion, error) {
	promo, err := u.Generate(ctx, path)
	if err != nil {
		return nil, err
	}

	if !promo.Structured {
		logging.From(ctx).Warn("response did not match pattern format, not cached",
			"path", path,
			"model", promo.ModelUsed)
		return promo, nil
	}

	name := filepath.Base(path)
	if err := u.cache.Put(ctx, name, promo.Patterns); err != nil {
		return nil, goerr.Wrap(err, "failed to cache patterns", goerr.V("article", name))
	}
	logging.From(ctx).Info("patterns cached", "article", name, "model", promo.ModelUsed)

	return promo, nil
}

// generate tries each model in order. Only rate-limit errors move on to the
// next model; any other failure stops immediately.
func (u *UseCase) generate(ctx context.Context, prompt string) (string, string, error) {
	var lastErr error
	for _, m := range u.models {
		logging.From(ctx).Debug("trying model", "model", m)

		resp, err := u.gemini.GenerateContent(ctx, m, genai.Text(prompt), nil)
		if err == nil {
			return adapter.ResponseText(resp), m, nil
		}

		lastErr = err
		if !adapter.IsRateLimited(err) {
			break
		}
		logging.From(ctx).Warn("model is rate limited, falling back", "model", m, "error", err)
	}

	if lastErr == nil {
		return "", "", goerr.New("no model configured")
	}
	return "", "", goerr.Wrap(lastErr, "all models failed", goerr.V("models", u.models))
}

func parsePromotion(text, modelUsed string) *model.Promotion {
	var patterns []string
	for _, p := range patternSeparator.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	if len(patterns) < PatternCount {
		return &model.Promotion{
			Patterns:  []string{text},
			Raw:       text,
			ModelUsed: modelUsed,
		}
	}

	return &model.Promotion{
		Patterns:   patterns[:PatternCount],
		Raw:        text,
		ModelUsed:  modelUsed,
		Structured: true,
	}
}
