package promote_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mochisura/marketer/pkg/repository"
	"github.com/mochisura/marketer/pkg/usecase/promote"
	"google.golang.org/genai"
)

// mockGemini is a mock implementation of adapter.Gemini for testing
type mockGemini struct {
	generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	calls        []string
}

func (m *mockGemini) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls = append(m.calls, model)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, model, contents, config)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGemini) ListModels(ctx context.Context) ([]*genai.Model, error) {
	return nil, errors.New("not implemented")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func promptOf(contents []*genai.Content) string {
	var sb strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

const structuredResponse = `パターン1: 成果の提示
姿勢が変わる。
パターン2： 期待される未来
サロンの日常。
パターン3: 知的な動機付け
安心の根拠。`

func writeArticle(t *testing.T, dir, name, body string) string {
	path := filepath.Join(dir, name)
	html := `<h1 class="article-title">呼吸の科学</h1><div class="content"><p>` + body + `</p></div>`
	gt.NoError(t, os.WriteFile(path, []byte(html), 0o600))
	return path
}

func setup(t *testing.T) (string, *repository.JSONAnalysisCache) {
	dir := t.TempDir()
	cache := repository.NewJSONAnalysisCache(filepath.Join(dir, "data", "analysis_data.json"))
	return dir, cache
}

func TestGenerateStructured(t *testing.T) {
	ctx := context.Background()
	dir, cache := setup(t)
	path := writeArticle(t, dir, "breath.html", "横隔膜の動きについて")

	var prompt string
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			prompt = promptOf(contents)
			return textResponse(structuredResponse), nil
		},
	}

	uc := promote.New(gemini, cache)
	promo, err := uc.Generate(ctx, path)
	gt.NoError(t, err)
	gt.True(t, promo.Structured)
	gt.A(t, promo.Patterns).Length(3)
	gt.Equal(t, promo.Patterns[0], "成果の提示\n姿勢が変わる。")
	gt.Equal(t, promo.Patterns[1], "期待される未来\nサロンの日常。")
	gt.Equal(t, promo.ModelUsed, "gemini-2.5-flash")

	gt.S(t, prompt).Contains("タイトル: 呼吸の科学")
	gt.S(t, prompt).Contains("横隔膜の動きについて")

	// Generate never touches the cache
	data, err := cache.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(data), 0)
}

func TestGenerateUnstructured(t *testing.T) {
	ctx := context.Background()
	dir, cache := setup(t)
	path := writeArticle(t, dir, "breath.html", "本文")

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("free form answer"), nil
		},
	}

	promo, err := promote.New(gemini, cache).Generate(ctx, path)
	gt.NoError(t, err)
	gt.False(t, promo.Structured)
	gt.Equal(t, promo.Patterns, []string{"free form answer"})
	gt.Equal(t, promo.Raw, "free form answer")
}

func TestGenerateTruncatesBody(t *testing.T) {
	ctx := context.Background()
	dir, cache := setup(t)
	body := strings.Repeat("あ", 1500) + "END"
	path := writeArticle(t, dir, "long.html", body)

	var prompt string
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			prompt = promptOf(contents)
			return textResponse(structuredResponse), nil
		},
	}

	_, err := promote.New(gemini, cache).Generate(ctx, path)
	gt.NoError(t, err)
	gt.S(t, prompt).Contains(strings.Repeat("あ", 1500))
	gt.S(t, prompt).NotContains("END")
}

func TestGenerateEmptyArticle(t *testing.T) {
	ctx := context.Background()
	dir, cache := setup(t)
	path := filepath.Join(dir, "empty.html")
	gt.NoError(t, os.WriteFile(path, []byte(`<h1 class="article-title">x</h1>`), 0o600))

	gemini := &mockGemini{}
	_, err := promote.New(gemini, cache).Generate(ctx, path)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, promote.ErrEmptyArticle))
	gt.A(t, gemini.calls).Length(0)
}

func TestGenerateModelFallback(t *testing.T) {
	ctx := context.Background()
	dir, cache := setup(t)
	path := writeArticle(t, dir, "breath.html", "本文")

	t.Run("rate limited model falls back", func(t *testing.T) {
		gemini := &mockGemini{
			generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				if model == "model-a" {
					return nil, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}
				}
				return textResponse(structuredResponse), nil
			},
		}

		promo, err := promote.New(gemini, cache, promote.WithModels("model-a", "model-b")).Generate(ctx, path)
		gt.NoError(t, err)
		gt.Equal(t, promo.ModelUsed, "model-b")
		gt.Equal(t, gemini.calls, []string{"model-a", "model-b"})
	})

	t.Run("other error stops immediately", func(t *testing.T) {
		gemini := &mockGemini{
			generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}
			},
		}

		_, err := promote.New(gemini, cache, promote.WithModels("model-a", "model-b")).Generate(ctx, path)
		gt.Error(t, err)
		gt.Equal(t, gemini.calls, []string{"model-a"})
	})

	t.Run("all models rate limited", func(t *testing.T) {
		gemini := &mockGemini{
			generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, genai.APIError{Code: 429}
			},
		}

		_, err := promote.New(gemini, cache, promote.WithModels("model-a", "model-b")).Generate(ctx, path)
		gt.Error(t, err)
		gt.Equal(t, gemini.calls, []string{"model-a", "model-b"})
	})
}

func TestAnalyzeCachesStructuredOnly(t *testing.T) {
	ctx := context.Background()
	dir, cache := setup(t)
	good := writeArticle(t, dir, "good.html", "本文")
	bad := writeArticle(t, dir, "bad.html", "本文")

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			if strings.Contains(promptOf(contents), "unstructured") {
				return textResponse("no patterns here"), nil
			}
			return textResponse(structuredResponse), nil
		},
	}
	uc := promote.New(gemini, cache)

	_, err := uc.Analyze(ctx, good)
	gt.NoError(t, err)

	gt.NoError(t, os.WriteFile(bad, []byte(`<div class="content">unstructured</div>`), 0o600))
	promo, err := uc.Analyze(ctx, bad)
	gt.NoError(t, err)
	gt.False(t, promo.Structured)

	data, err := cache.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(data), 1)
	gt.A(t, data["good.html"]).Length(3)
}

func TestAnalyzeAll(t *testing.T) {
	ctx := context.Background()
	dir, cache := setup(t)
	writeArticle(t, dir, "a.html", "記事A")
	writeArticle(t, dir, "b.html", "記事B")
	writeArticle(t, dir, "c.html", "記事C")

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			prompt := promptOf(contents)
			switch {
			case strings.Contains(prompt, "記事B"):
				return nil, errors.New("network failure")
			case strings.Contains(prompt, "記事C"):
				return textResponse("unstructured"), nil
			}
			return textResponse(structuredResponse), nil
		},
	}

	report, err := promote.New(gemini, cache).AnalyzeAll(ctx, dir)
	gt.NoError(t, err)
	gt.Equal(t, report.Total, 3)
	gt.Equal(t, report.Succeeded, 1)
	gt.Equal(t, report.Unstructured, 1)
	gt.Equal(t, len(report.Failed), 1)
	gt.Map(t, report.Failed).HasKey("b.html")

	data, err := cache.Load(ctx)
	gt.NoError(t, err)
	gt.Map(t, data).HasKey("a.html")
}
