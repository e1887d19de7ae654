// Package pipeline 驱动一次完整的生成流程：流式拿文本、
// 逐段渲染，流结束后扇出到历史、语音、导出三个分支，
// 任一分支失败都不影响其余分支。
package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"babata_assistant/export"
	"babata_assistant/generator"
	"babata_assistant/history"
	"babata_assistant/logger"
	"babata_assistant/speech"
)

// State 是编排器状态机的取值。一个实例只跑一次，
// 不会自动回到 idle；新请求新建实例。
type State string

const (
	StateIdle             State = "idle"
	StateStreaming        State = "streaming"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
	StatePartialArtifacts State = "partial_artifacts"
	StateFullArtifacts    State = "full_artifacts"
)

// BranchStatus 描述单个扇出分支的结局。
type BranchStatus string

const (
	BranchOK      BranchStatus = "ok"
	BranchFailed  BranchStatus = "failed"
	BranchSkipped BranchStatus = "skipped"
)

// Branch 是一个分支的结果条目，错误在分支边界被捕获后记在这里。
type Branch struct {
	Status BranchStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Report 汇总三个分支的状态，随最终结果一起交给调用方。
type Report struct {
	History Branch `json:"history"`
	Audio   Branch `json:"audio"`
	Exports Branch `json:"exports"`
}

// Outcome 是一次成功跑完流（Completed 之后）的全部产物。
type Outcome struct {
	Result generator.Result
	State  State
	Report Report

	// Files 是导出缓冲，只在响应期间存活。
	Files map[string][]byte
	// Record 是写进历史日志的那一条（历史分支成功时有效）。
	Record history.Record
	// AudioPath 在音频生成成功时指向输出文件。
	AudioPath string
}

var errAlreadyRun = errors.New("orchestrator already ran; start a fresh instance")

// Orchestrator 把各分支的句柄显式注入，不碰任何全局路径。
// synth 为 nil 表示语音功能整体关闭。
type Orchestrator struct {
	llm       generator.LLMClient
	store     *history.Store
	synth     speech.Synthesizer
	audioPath string
	state     State
}

func New(llm generator.LLMClient, store *history.Store, synth speech.Synthesizer, audioPath string) *Orchestrator {
	return &Orchestrator{
		llm:       llm,
		store:     store,
		synth:     synth,
		audioPath: audioPath,
		state:     StateIdle,
	}
}

func (o *Orchestrator) State() State { return o.state }

// Run 执行一次生成。校验失败和流中途失败都直接返回错误，
// 此时扇出分支一个都不会跑、也不会留下历史记录；
// 流完整结束后进入扇出，Run 不再返回错误，分支失败记在 Report 里。
func (o *Orchestrator) Run(ctx context.Context, req generator.Request, render generator.RenderFunc) (*Outcome, error) {
	if o.state != StateIdle {
		return nil, errAlreadyRun
	}

	if err := req.Normalize(); err != nil {
		o.state = StateFailed
		return nil, err
	}

	o.state = StateStreaming
	src, err := o.llm.Generate(ctx, generator.BuildPrompt(req))
	if err != nil {
		o.state = StateFailed
		return nil, &generator.ServiceError{Err: err}
	}

	fullText, err := generator.Collect(src, render)
	if err != nil {
		o.state = StateFailed
		return nil, &generator.ServiceError{Err: err}
	}

	o.state = StateCompleted
	outcome := &Outcome{
		Result: generator.Result{
			Mode:        req.Mode,
			Topic:       req.Topic,
			FullText:    fullText,
			CompletedAt: time.Now(),
		},
	}

	// 扇出：先记历史，再合成语音，最后构建导出。
	// 顺序固定，但任何一步的失败都只记录在自己的分支里。
	o.appendHistory(outcome)
	o.renderAudio(ctx, req, outcome)
	o.buildExports(outcome)

	o.state = StateFullArtifacts
	for _, b := range []Branch{outcome.Report.History, outcome.Report.Audio, outcome.Report.Exports} {
		if b.Status == BranchFailed {
			o.state = StatePartialArtifacts
			break
		}
	}
	outcome.State = o.state
	return outcome, nil
}

func (o *Orchestrator) appendHistory(out *Outcome) {
	rec, err := o.store.Append(out.Result.Mode.Label(), out.Result.Topic, out.Result.FullText)
	if err != nil {
		logger.ErrorWithFields("history append failed", logger.Fields{"error": err.Error()})
		out.Report.History = Branch{Status: BranchFailed, Error: err.Error()}
		return
	}
	out.Record = rec
	out.Report.History = Branch{Status: BranchOK}
}

func (o *Orchestrator) renderAudio(ctx context.Context, req generator.Request, out *Outcome) {
	if !req.Voice || o.synth == nil {
		out.Report.Audio = Branch{Status: BranchSkipped}
		return
	}

	// 全文朗读，不截断；合成前清洗 Markdown 记号。
	data, err := o.synth.Render(ctx, generator.Sanitize(out.Result.FullText))
	if err != nil {
		logger.WarnWithFields("speech synthesis failed", logger.Fields{"error": err.Error()})
		out.Report.Audio = Branch{Status: BranchFailed, Error: err.Error()}
		return
	}
	if err := os.WriteFile(o.audioPath, data, 0o644); err != nil {
		logger.ErrorWithFields("audio write failed", logger.Fields{"path": o.audioPath, "error": err.Error()})
		out.Report.Audio = Branch{Status: BranchFailed, Error: err.Error()}
		return
	}
	out.AudioPath = o.audioPath
	out.Report.Audio = Branch{Status: BranchOK}
}

func (o *Orchestrator) buildExports(out *Outcome) {
	files, errs := export.Build(out.Result.Topic, out.Result.FullText, out.Result.Mode.Label())
	out.Files = files
	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			logger.WarnWithFields("export format failed", logger.Fields{"format": e.Format, "error": e.Error()})
			msgs = append(msgs, e.Error())
		}
		out.Report.Exports = Branch{Status: BranchFailed, Error: strings.Join(msgs, "; ")}
		return
	}
	out.Report.Exports = Branch{Status: BranchOK}
}
