package handler

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
	)
	htmlPolicy = bluemonday.UGCPolicy()
)

// renderTextBlock 将文本区块渲染为安全的 HTML 片段。
// 区块内容支持 Markdown（内嵌 HTML 原样通过渲染器），
// 最终输出统一经过 bluemonday UGC 策略过滤。
func renderTextBlock(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return htmlPolicy.Sanitize(content)
	}
	return htmlPolicy.Sanitize(buf.String())
}
