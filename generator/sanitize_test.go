package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"# 标题\n**加粗**", " 标题\n加粗"},
		{"---\n正文", "\n正文"},
		{"a = b", "a  b"},
		{"无记号文本", "无记号文本"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Sanitize(c.in))
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"# 🎯摘要\n**痛点** --- ===",
		"plain text",
		"火星奶茶店：#1 的选择",
		"",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once))
	}
}

func TestSanitizeNeverLengthens(t *testing.T) {
	inputs := []string{"###", "abc", "**粗**体", "- - -", "正常段落，无需清洗。"}
	for _, in := range inputs {
		assert.LessOrEqual(t, len(Sanitize(in)), len(in))
	}
}
