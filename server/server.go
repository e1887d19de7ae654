package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"babata_assistant/export"
	"babata_assistant/generator"
	"babata_assistant/history"
	"babata_assistant/pipeline"
	"babata_assistant/speech"
)

//go:embed web/index.html
var embeddedStatic embed.FS

// generateTimeout 罩住整条流水线：长流 + 一次语音合成。
const generateTimeout = 5 * time.Minute

// cursor 是流式渲染时附在快照末尾的进行中光标，
// 最终快照不带它。
const cursor = "▌"

// keepRuns 是下载缓冲保留的最近生成次数。导出缓冲只为
// 下载动作而活，旧的被挤掉后对应链接返回 404。
const keepRuns = 8

var exportContentTypes = map[string]string{
	export.FormatMarkdown: "text/markdown; charset=utf-8",
	export.FormatDocx:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	export.FormatPptx:     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

type Server struct {
	llm       generator.LLMClient
	store     *history.Store
	synth     speech.Synthesizer
	audioPath string
	runs      *runStore
}

// runStore 按生成 ID 暂存导出缓冲，容量固定，旧的先出。
type runStore struct {
	mu    sync.Mutex
	runs  map[string]map[string][]byte
	order []string
}

func newRunStore() *runStore {
	return &runStore{runs: make(map[string]map[string][]byte)}
}

func (s *runStore) set(id string, files map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[id] = files
	s.order = append(s.order, id)
	for len(s.order) > keepRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *runStore) get(id string) (map[string][]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.runs[id]
	return files, ok
}

// New 组装 HTTP 服务。synth 传 nil 表示语音关闭，
// 对应接口仍在但只会报告 skipped。
func New(llm generator.LLMClient, store *history.Store, synth speech.Synthesizer, audioPath string) (*Server, error) {
	if llm == nil {
		return nil, errors.New("llm client required")
	}
	if store == nil {
		return nil, errors.New("history store required")
	}
	return &Server{
		llm:       llm,
		store:     store,
		synth:     synth,
		audioPath: audioPath,
		runs:      newRunStore(),
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLog)
	r.Use(middleware.Recoverer)

	r.Post("/api/generate", s.handleGenerate)
	r.Get("/api/modes", s.handleModes)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/audio", s.handleAudio)
	r.Get("/api/exports/{id}/{format}", s.handleDownload)
	r.Get("/", s.handleIndex)
	return r
}

// --- Handlers ---

type doneEvent struct {
	ID        string            `json:"id"`
	FullText  string            `json:"full_text"`
	HTML      string            `json:"html"`
	State     pipeline.State    `json:"state"`
	Report    pipeline.Report   `json:"report"`
	Record    history.Record    `json:"record"`
	AudioURL  string            `json:"audio_url,omitempty"`
	Downloads map[string]string `json:"downloads"`
}

// handleGenerate 是流水线的入口：SSE 推送进度快照，
// 流结束后推一条 done 事件带上完整报告。
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 校验要在 SSE 头发出去之前做完，空主题直接 400。
	if err := req.Normalize(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	render := func(snapshot string, done bool) {
		if done {
			return
		}
		emitEvent(w, "delta", map[string]string{"text": snapshot + cursor})
		flusher.Flush()
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	orch := pipeline.New(s.llm, s.store, s.synth, s.audioPath)
	outcome, err := orch.Run(ctx, req, render)
	if err != nil {
		// 流中途失败：已渲染的内容由前端自行保留，这里只报错。
		emitEvent(w, "error", map[string]string{"error": err.Error()})
		flusher.Flush()
		return
	}

	id := uuid.NewString()
	s.runs.set(id, outcome.Files)

	downloads := make(map[string]string, len(outcome.Files))
	for format := range outcome.Files {
		downloads[format] = fmt.Sprintf("/api/exports/%s/%s", id, format)
	}

	evt := doneEvent{
		ID:        id,
		FullText:  outcome.Result.FullText,
		HTML:      mdToHTML(outcome.Result.FullText),
		State:     outcome.State,
		Report:    outcome.Report,
		Record:    outcome.Record,
		Downloads: downloads,
	}
	if outcome.AudioPath != "" {
		evt.AudioURL = "/api/audio"
	}
	emitEvent(w, "done", evt)
	flusher.Flush()
}

type modeEntry struct {
	Mode        generator.Mode `json:"mode"`
	Label       string         `json:"label"`
	Placeholder string         `json:"placeholder"`
}

func (s *Server) handleModes(w http.ResponseWriter, _ *http.Request) {
	modes := make([]modeEntry, 0, 4)
	for _, m := range generator.Modes() {
		modes = append(modes, modeEntry{Mode: m, Label: m.Label(), Placeholder: m.Placeholder()})
	}
	writeJSON(w, modes)
}

// handleHistory 倒序返回历史：最新的排最前。
func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	records := s.store.LoadAll()
	reversed := make([]history.Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		reversed = append(reversed, records[i])
	}
	writeJSON(w, reversed)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.audioPath); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, s.audioPath)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")

	files, ok := s.runs.get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, ok := files[format]
	if !ok {
		http.NotFound(w, r)
		return
	}

	ct := exportContentTypes[format]
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format))
	w.Write(data)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := embeddedStatic.ReadFile("web/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func mdToHTML(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}

func emitEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
