// Package export 把完成的全文打包成可下载的文档：
// Markdown 原文、最小可用的 docx 与 pptx。三种格式彼此独立，
// 某一种构建失败不影响其余格式返回。
package export

import (
	"fmt"
	"strings"
)

// 各格式的下载文件名，同时作为结果 map 的键。
const (
	FormatMarkdown = "article.md"
	FormatDocx     = "article.docx"
	FormatPptx     = "article.pptx"
)

// SlideBodyRunes 是单页幻灯正文的安全上限，超出部分直接截断
// 并加续行标记，不分页。
const SlideBodyRunes = 800

// BuildError 记录单一格式的构建失败。
type BuildError struct {
	Format string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Build 为一次完成的生成构造全部导出格式。
// 返回格式名到字节缓冲的映射，以及失败格式的错误列表；
// 缓冲只在响应期间存活，不落盘。
func Build(topic, fullText, modeLabel string) (map[string][]byte, []*BuildError) {
	files := make(map[string][]byte, 3)
	var errs []*BuildError

	files[FormatMarkdown] = buildMarkdown(topic, fullText)

	if data, err := buildDocx(topic, fullText, modeLabel); err != nil {
		errs = append(errs, &BuildError{Format: FormatDocx, Err: err})
	} else {
		files[FormatDocx] = data
	}

	if data, err := buildPptx(topic, fullText, modeLabel); err != nil {
		errs = append(errs, &BuildError{Format: FormatPptx, Err: err})
	} else {
		files[FormatPptx] = data
	}

	return files, errs
}

// buildMarkdown 拼标题行加全文。空文只剩标题。
func buildMarkdown(topic, fullText string) []byte {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(topic)
	b.WriteString("\n")
	if fullText != "" {
		b.WriteString("\n")
		b.WriteString(fullText)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// truncateRunes 按字符数截断，超限时补续行标记。
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

// textLines 把全文按行拆成段落，丢掉空行。
func textLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
