package service

import (
	"regexp"
	"strings"
)

var inlineStylePattern = regexp.MustCompile(`\s*style="[^"]*"`)

// CleanEditorHTML 清理富文本编辑器产生的冗余标记：
// 将 &nbsp; 与不换行空格替换为普通空格，剥离双引号包裹的内联
// style 属性，并移除软连字符及其实体形式。
//
// 函数是纯函数且幂等，空输入原样返回。它只做文本级过滤，
// 不解析 HTML：未加引号的 style 属性会原样通过。
func CleanEditorHTML(raw string) string {
	if raw == "" {
		return raw
	}

	cleaned := strings.ReplaceAll(raw, "&nbsp;", " ")
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", " ")
	cleaned = inlineStylePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "\u00ad", "")
	cleaned = strings.ReplaceAll(cleaned, "&shy;", "")
	return cleaned
}
