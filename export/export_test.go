package export

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatalf("part %s not found in archive", name)
	return ""
}

func TestBuildProducesAllFormats(t *testing.T) {
	files, errs := Build("火星奶茶店", "🎯摘要\n⚡痛点\n💎方案", "💼 商业策划案")

	assert.Empty(t, errs)
	require.Contains(t, files, FormatMarkdown)
	require.Contains(t, files, FormatDocx)
	require.Contains(t, files, FormatPptx)
}

func TestBuildMarkdownEmptyText(t *testing.T) {
	files, errs := Build("只有标题", "", "")

	assert.Empty(t, errs)
	assert.Equal(t, "# 只有标题\n", string(files[FormatMarkdown]))
}

func TestBuildMarkdownConcatenation(t *testing.T) {
	files, _ := Build("主题", "第一段\n第二段", "")
	assert.Equal(t, "# 主题\n\n第一段\n第二段\n", string(files[FormatMarkdown]))
}

func TestDocxContainsEscapedText(t *testing.T) {
	files, errs := Build("A & B", "1 < 2 且 \"引号\"", "📊 职场周报大师")
	require.Empty(t, errs)

	doc := readZipPart(t, files[FormatDocx], "word/document.xml")
	assert.Contains(t, doc, "A &amp; B")
	assert.Contains(t, doc, "1 &lt; 2")
	assert.Contains(t, doc, "📊 职场周报大师")
	assert.NotContains(t, doc, "\"引号\"")
}

func TestDocxPackageShape(t *testing.T) {
	files, _ := Build("t", "body", "")
	data := files[FormatDocx]

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	// [Content_Types].xml 必须是包里第一个部件。
	assert.Equal(t, "[Content_Types].xml", zr.File[0].Name)
}

func TestPptxTruncatesSlideBody(t *testing.T) {
	long := strings.Repeat("茶", SlideBodyRunes+200)
	files, errs := Build("长文", long, "")
	require.Empty(t, errs)

	slide := readZipPart(t, files[FormatPptx], "ppt/slides/slide1.xml")
	assert.Contains(t, slide, strings.Repeat("茶", SlideBodyRunes)+"…")
	assert.NotContains(t, slide, strings.Repeat("茶", SlideBodyRunes+1))
}

func TestPptxShortBodyNotTruncated(t *testing.T) {
	files, _ := Build("短文", "一句话正文", "❤️ 情感/哄人专家")

	slide := readZipPart(t, files[FormatPptx], "ppt/slides/slide1.xml")
	assert.Contains(t, slide, "一句话正文")
	assert.NotContains(t, slide, "…")
	assert.Contains(t, slide, "❤️ 情感/哄人专家：短文")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab…", truncateRunes("abcde", 2))
	assert.Equal(t, "中文…", truncateRunes("中文内容", 2))
}
