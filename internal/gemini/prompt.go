package gemini

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultPrompt asks for a categorized Traditional Chinese digest with short
// per-item summaries, untouched links, and a few conversation starters.
const DefaultPrompt = `你是一位專業的新聞編輯。以下是 {{.Date}} 從多個地區蒐集到的新聞標題與連結：

{{.Corpus}}

請使用{{.Language}}完成以下工作：
1. 依主題（例如：國際、政治、財經、科技、社會）重新分類上述新聞，每個分類以「### 分類名稱」開頭。
2. 每則新聞寫一句不超過 30 字的重點摘要，摘要後面原封不動附上該則新聞的 Markdown 連結，不得修改任何網址。
3. 最後加上「### 💬 聊天話題建議」，提供 2 到 3 個適合與長輩朋友聊天的話題。
只輸出整理後的內容，不要加入其他說明。`

const probePrompt = "Reply with the single word OK."

type promptData struct {
	Corpus   string
	Language string
	Date     string
}

func parsePrompt(tmpl string) (*template.Template, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultPrompt
	}
	t, err := template.New("summary").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return t, nil
}

func renderPrompt(t *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
