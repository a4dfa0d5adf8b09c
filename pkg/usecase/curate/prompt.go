package curate

import (
	"bytes"
	"strings"
	"text/template"
)

// DefaultBaseQuery is the search scope used when no settings override it
const DefaultBaseQuery = `(bleeding edge AI AND technology trends)
OR (latest LLM research AND robotics AND sensors AND future of work)
OR (human performance enhancement AND AI AND bio-tech)
OR (digital transformation AND individual productivity AND AI business)`

var promptTemplate = template.Must(template.New("curate").Parse(`あなたはMochisura Labの「調査班 (Mochisura Intelligence Division)」、あるいは「筆頭解析官」です。

【ミッション】
最新のAIニュースから、私たちの「仕事」や「生き方」、あるいは「人間の可能性」を拡張するような特異点を1つ抽出し、精密なプロファイリングを行ってください。
{{- if .Topic}}

【最優先調査事項】
特に以下のトピックに注目して調査してください：『{{.Topic}}』
{{- end}}

これらを「個人のプロフェッショナルが、AI共生時代の荒波をどう戦略的に生き抜くか」という包括的な視点で読み解きます。
{{- if .History}}

【重要: 回避すべき既知のトピック】
以下のトピックは既に調査済みです。これらとは異なる、新しい「事件（ネタ）」を独自に選定してください：
{{- range .History}}
- {{.}}
{{- end}}
{{- end}}

【出力要件】
必ず以下の4つのタグをすべて使用し、その中に内容を記述してください。

<Analysis>
技術的・論理的な分析。個別のニュースであればその独自性を、包括的なトレンドであればその「構造的変化」を記述してください。
</Analysis>

<Summary>
多忙な読者が30秒で「今何が起きているのか」を理解できる包括的な要約を記述してください。
</Summary>

<Source>
具体的な情報元（メディア、論文、企業発表など）を記述してください。
</Source>

<Commentary>
最も重要なセクションです。鋭い洞察力で、このトレンドが私たちの「専門性」や「個人の在り方」をどう変えるかを150文字以上で詳細に解説してください。
</Commentary>

【NG事項】
- 「AIは便利だ」などの平凡な提案。
- 既に知れ渡った古いニュース。
- 上記の【既知のトピック】の再利用。

最後に必ず「観測完了。未来は、あなたの手のひらの中に。 もちスララボ｜調査班」を添えてください。
`))

type promptData struct {
	Topic   string
	History []string
}

func buildPrompt(topic string, history []string) string {
	var buf bytes.Buffer
	_ = promptTemplate.Execute(&buf, promptData{Topic: topic, History: history})
	return buf.String()
}

// buildQuery narrows the base query to the topic when one is given
func buildQuery(topic, base string) string {
	if topic = strings.TrimSpace(topic); topic == "" {
		return base
	}
	return "(" + topic + ") AND (" + base + ")"
}

func searchInstruction(query string) string {
	return "今日の最新ニュースを検索して: " + query
}
