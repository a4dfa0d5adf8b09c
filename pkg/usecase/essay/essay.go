package essay

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/adapter"
	"github.com/mochisura/marketer/pkg/utils/logging"
	"google.golang.org/genai"
)

var (
	ErrEmptyEra = goerr.New("era is empty")
)

// Input describes the historical article to write
type Input struct {
	Era        string
	Keywords   string
	Philosophy bool
	// Round is the monthly session number, 0 when the article is not part of a session
	Round int
}

// UseCase generates long-form history articles as HTML
type UseCase struct {
	gemini adapter.Gemini
	model  string
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithModel sets the generative model
func WithModel(model string) Option {
	return func(uc *UseCase) {
		uc.model = model
	}
}

// New creates a new essay UseCase instance
func New(gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		gemini: gemini,
		model:  adapter.DefaultModel,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

var promptTemplate = template.Must(template.New("essay").Parse(`あなたはMochisura Labの「歴史探究班・筆頭記録官」です。
以下の時代・トピックについて、プロフェッショナルかつ叙情的な詳細記事をHTML形式で生成してください。

【対象時代/トピック】
{{.Era}}
キーワード: {{.Keywords}}
{{if .Philosophy}}
【最重要：哲学特化セッション】
{{if .Round}}第 {{.Round}} 回セッション：{{end}}思想家たちの「智の爆発」に焦点を当ててください。
当時の社会が直面していた矛盾や「問い」に対し、彼らがどのような新しい視座を提供したのか。
そして、その「問い」が2,500年後の現在、AIを操る私たちにどう響いているのかを深く考察してください。
{{end}}
【出力要件】
1. デザインは既存の blog/history/ のスタイルを継承し、没入感のあるダークモード構成にすること。
2. 構成：
   - <div class="article-header">：壮大なタイトルとサブタイトル
   - <div class="cosmic-content">：本文（Shippori Minchoフォントを使用）
   - <div class="scene-box">：印象的な情景描写
   - <div class="fact-sidebar">：AI調査班による「哲学とテクノロジー」の視点での解説
3. 記事内には、現在の閲覧者に語りかけるような、AI調査員からの「問い」を1つ配置してください。
`))

func buildPrompt(input Input) string {
	var buf bytes.Buffer
	_ = promptTemplate.Execute(&buf, input)
	return buf.String()
}

// Generate writes an HTML article for input
func (u *UseCase) Generate(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(input.Era) == "" {
		return "", ErrEmptyEra
	}

	logging.From(ctx).Info("generating essay", "era", input.Era, "round", input.Round, "model", u.model)

	resp, err := u.gemini.GenerateContent(ctx, u.model, genai.Text(buildPrompt(input)), nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate essay", goerr.V("era", input.Era))
	}

	return stripFence(adapter.ResponseText(resp)), nil
}

// stripFence returns the body of a ```html block, or of the first fenced
// block when no html block exists. Text without fences is returned as is.
func stripFence(text string) string {
	if _, after, ok := strings.Cut(text, "```html"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(text, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return text
}
