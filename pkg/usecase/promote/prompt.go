package promote

import (
	"bytes"
	"text/template"
)

// bodyLimit is the number of body characters sent to the model
const bodyLimit = 1500

var promptTemplate = template.Must(template.New("promote").Parse(`あなたはMochisura Labの「データ解析官（Data Analyst Slime）」です。
提供されたブログ記事（タイトル: {{.Title}}）から、読者が「結局何ができるようになるのか」というアウトカム（成果）を蒸留し、情報を欲しがらせる（憧れさせる）メッセージを3パターン生成してください。

【キャラクター・ミッション】
- 専門的な「ラボの研究データ」を、一般ユーザー向けの「憧れの未来」へ論理的に翻訳する。
- 煽りや商材言葉は一切使わず、知的で洗練された「凄み」を感じさせること。
- 読者が「自分もそうなりたい（勉強したい）」と思う、具体的で達成可能な成果を提示すること。

【出力パターンの構成】
1. 【成果の提示】読者が手に入れる「能力」や「自由」を一言で明示。なぜそれが可能か（ラボのエビデンス）を添える。
2. 【期待される未来】その技術を得た後の「サロンの日常」を情景描写。
3. 【知的な動機付け】マニアックな知見のどの部分が「安心の根拠」なのかを論理的に解説。

【重要事項】
- 商材屋（「稼げる」「秒で」等）との差別化を徹底。
- 各パターンは「パターン1:」「パターン2:」「パターン3:」で始めること。
- パターンごとに見出しをつけ、各パターンの末尾に必ず以下を添えること：
  解析完了。 もちスララボ｜近日公開予定

【データ元：ラボの研究記事】
タイトル: {{.Title}}
解析対象: {{.Body}}
`))

func buildPrompt(title, body string) string {
	var buf bytes.Buffer
	// the template is static and both fields are plain strings
	_ = promptTemplate.Execute(&buf, struct {
		Title string
		Body  string
	}{
		Title: title,
		Body:  truncate(body, bodyLimit),
	})
	return buf.String()
}

// truncate cuts s to at most n characters
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
