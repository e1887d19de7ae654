package generator

import (
	"fmt"
	"sort"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
}

// modeSpec 是单个功能模式的静态配置：展示名、system 提示词、输入占位符。
// 模式到提示词的映射是一张固定查表，不做运行时字符串分支。
type modeSpec struct {
	Label       string
	System      string
	Placeholder string
}

var modeTable = map[Mode]modeSpec{
	ModeBusinessPlan: {
		Label:       "💼 商业策划案",
		System:      "【强制中文】输出商业策划案(Markdown)。结构：🎯摘要、⚡痛点、💎方案、💰模式。请表现得极具商业洞察力。",
		Placeholder: "输入项目点子，如：火星奶茶店...",
	},
	ModeSocialPost: {
		Label:       "📕 小红书爆款",
		System:      "你是小红书爆款博主。要求：1.标题带emoji极其抓眼球。2.正文多emoji，语气像闺蜜安利。3.包含：🌟亮点、📝感受、💡避雷。4.结尾带#标签。",
		Placeholder: "输入核心主题...",
	},
	ModeWeeklyReport: {
		Label:       "📊 职场周报大师",
		System:      "你是互联网大厂P8。请把用户输入的简单内容扩写成高大上的周报。多用黑话：赋能、闭环、抓手、沉淀、复盘。结构：✅产出、🚧卡点、📅规划。",
		Placeholder: "输入核心主题...",
	},
	ModeRelationshipAdvice: {
		Label:       "❤️ 情感/哄人专家",
		System:      "你是顶级情感专家。如果是哄人，要温柔体贴，提供情绪价值；如果是分析感情，要一针见血但充满关怀。请给出具体的行动建议。",
		Placeholder: "输入情感困惑，如：女朋友生气了怎么哄？...",
	},
}

// Label 返回模式的中文展示名（历史记录里存的也是它）。
func (m Mode) Label() string {
	return modeTable[m].Label
}

// Placeholder 返回模式对应的输入框占位文案。
func (m Mode) Placeholder() string {
	return modeTable[m].Placeholder
}

// Modes 返回全部模式，顺序固定，供前端渲染下拉框。
func Modes() []Mode {
	ms := make([]Mode, 0, len(modeTable))
	for m := range modeTable {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
	return ms
}

// BuildPrompt 由请求拼出最终消息：模式模板 + 语气 + 字数指令。
func BuildPrompt(req Request) Prompt {
	spec := modeTable[req.Mode]
	return Prompt{
		System: fmt.Sprintf("%s\n语气:%s\n字数:%d", spec.System, req.Style, req.Words),
		User:   req.Topic,
	}
}
