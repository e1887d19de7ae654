package generator

import (
	"errors"
	"fmt"
	"time"
)

// Words 的合法区间，与前端滑杆一致。
const (
	MinWords = 200
	MaxWords = 3000
)

// Mode 表示功能模式，取值固定（见 prompt.go 的模式表）。
type Mode string

const (
	ModeBusinessPlan       Mode = "business_plan"
	ModeSocialPost         Mode = "social_post"
	ModeWeeklyReport       Mode = "weekly_report"
	ModeRelationshipAdvice Mode = "relationship_advice"
)

// Style 是 AI 语气风格，直接拼进 system prompt。
type Style string

const (
	StyleProfessional Style = "专业理性"
	StyleSarcastic    Style = "毒舌巴巴塔"
	StyleGentle       Style = "温柔贴心"
	StylePassionate   Style = "热情激昂"
)

var validStyles = map[Style]bool{
	StyleProfessional: true,
	StyleSarcastic:    true,
	StyleGentle:       true,
	StylePassionate:   true,
}

// Request 描述一次生成任务，提交后不再修改。
type Request struct {
	Mode  Mode   `json:"mode"`
	Topic string `json:"topic"`
	Style Style  `json:"style"`
	Words int    `json:"words"`
	Voice bool   `json:"voice"`
}

var ErrEmptyTopic = errors.New("topic is required")

// Normalize 校验请求并补全默认值。主题为空直接拒绝，
// 不发起任何外部调用；字数越界则收敛到区间内。
func (r *Request) Normalize() error {
	if r.Topic == "" {
		return ErrEmptyTopic
	}
	if _, ok := modeTable[r.Mode]; !ok {
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	if r.Style == "" {
		r.Style = StyleProfessional
	}
	if !validStyles[r.Style] {
		return fmt.Errorf("unknown style %q", r.Style)
	}
	if r.Words < MinWords {
		r.Words = MinWords
	}
	if r.Words > MaxWords {
		r.Words = MaxWords
	}
	return nil
}

// Result 是流结束后定格的生成结果。产出之后只读，
// 历史、语音、导出分支共享同一份，不允许改写。
type Result struct {
	Mode        Mode      `json:"mode"`
	Topic       string    `json:"topic"`
	FullText    string    `json:"full_text"`
	CompletedAt time.Time `json:"completed_at"`
}

// ServiceError 包装生成服务（transport/鉴权/配额）层面的失败。
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "generation service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }
