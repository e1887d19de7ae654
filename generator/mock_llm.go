package generator

import (
	"context"
	"fmt"
	"io"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// 按固定几段输出一篇短 Markdown，用户输入原样嵌在正文里。
type MockLLM struct{}

func (m MockLLM) Generate(_ context.Context, prompt Prompt) (FragmentSource, error) {
	return NewSliceSource(
		"# 自动生成示例标题\n\n",
		"这里是一段自动生成的摘要，概述全文要点。\n\n",
		"## 正文\n\n",
		fmt.Sprintf("根据提示生成的内容：%s\n", prompt.User),
	), nil
}

// SliceSource 把固定的片段切片当作流来消费，测试里也用它。
type SliceSource struct {
	fragments []string
	pos       int
	err       error
}

func NewSliceSource(fragments ...string) *SliceSource {
	return &SliceSource{fragments: fragments}
}

// NewFailingSource 在产出 fragments 之后返回 err 而非 io.EOF，
// 用于模拟生成服务中途失败。
func NewFailingSource(err error, fragments ...string) *SliceSource {
	return &SliceSource{fragments: fragments, err: err}
}

func (s *SliceSource) Next() (string, error) {
	if s.pos >= len(s.fragments) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	f := s.fragments[s.pos]
	s.pos++
	return f, nil
}

func (s *SliceSource) Close() error { return nil }
