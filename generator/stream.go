package generator

import (
	"errors"
	"io"
	"strings"
)

// RenderFunc 接收累计快照。done 为 false 表示流还在进行中，
// 渲染方可以自行附加进行中光标；done 为 true 时快照即最终全文，
// 不带任何进行中标记。
type RenderFunc func(snapshot string, done bool)

// Collect 按到达顺序消费片段流，把每个片段追加进累计缓冲并在
// 下一个片段到来前渲染一次快照。快照序列长度单调不减。
// 空流（零片段即结束）返回空全文，不算错误；流中途失败
// 则原样返回该错误，已渲染的内容由调用方自行处理。
func Collect(src FragmentSource, render RenderFunc) (string, error) {
	defer src.Close()

	var buf strings.Builder
	for {
		fragment, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		buf.WriteString(fragment)
		if render != nil {
			render(buf.String(), false)
		}
	}

	full := buf.String()
	if render != nil {
		render(full, true)
	}
	return full, nil
}
