package app

import (
	"fmt"
	"strings"
	"time"
)

const closingNotice = "💡 溫馨提醒：點擊連結即可查看詳情。祝您與長輩朋友們聊得愉快！"

// Report is what gets pushed: a fixed title plus the formatted body.
type Report struct {
	Title string
	Body  string
}

// Formatter wraps report content with the dated preamble and closing notice.
type Formatter struct {
	regions      int
	maxPerRegion int
	loc          *time.Location
	now          func() time.Time
}

func NewFormatter(regions, maxPerRegion int, loc *time.Location, now func() time.Time) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Formatter{regions: regions, maxPerRegion: maxPerRegion, loc: loc, now: now}
}

// Title depends only on configuration, never on what was fetched.
func (f *Formatter) Title(summarized bool) string {
	if summarized {
		return fmt.Sprintf("🤖 今日%d地新聞 AI 摘要", f.regions)
	}
	return fmt.Sprintf("☀️ 今日%d地時事精選 (共 %d 則)", f.regions, f.regions*f.maxPerRegion)
}

func (f *Formatter) Format(content string, summarized bool) Report {
	now := f.now().In(f.loc)

	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s 今日%d地重要新聞彙整 (%s)\n\n", now.Format("2006-01-02"), f.regions, now.Format("15:04"))
	if content = strings.TrimRight(content, "\n "); content != "" {
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	b.WriteString("---\n")
	b.WriteString(closingNotice)

	return Report{Title: f.Title(summarized), Body: b.String()}
}
