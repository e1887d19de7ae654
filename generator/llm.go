package generator

import "context"

// LLMClient 抽象大模型客户端，便于替换/Mock。
// Generate 返回一个片段流，调用方逐段消费直至 io.EOF。
type LLMClient interface {
	Generate(ctx context.Context, prompt Prompt) (FragmentSource, error)
}

// FragmentSource 逐段产出生成文本。Next 在流结束时返回 io.EOF，
// 在服务中途失败时返回对应错误；Close 释放底层连接。
type FragmentSource interface {
	Next() (string, error)
	Close() error
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
