package generator

import "strings"

// speech 库和表格渲染吃不掉 Markdown 记号，固定清洗这四个字符：
// 标题 #、强调 *、分隔 = 和 -。
var sanitizer = strings.NewReplacer("#", "", "*", "", "=", "", "-", "")

// Sanitize 去掉会被读出来或弄脏下游渲染的 Markdown 字符。
// 纯函数，幂等，输出永远不长于输入。
func Sanitize(text string) string {
	return sanitizer.Replace(text)
}
