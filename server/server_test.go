package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babata_assistant/generator"
	"babata_assistant/history"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store := history.NewStore(filepath.Join(dir, "history.csv"))
	srv, err := New(generator.MockLLM{}, store, nil, filepath.Join(dir, "voice.mp3"))
	require.NoError(t, err)
	return srv
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		var evt sseEvent
		for _, line := range strings.Split(block, "\n") {
			if v, ok := strings.CutPrefix(line, "event: "); ok {
				evt.name = v
			}
			if v, ok := strings.CutPrefix(line, "data: "); ok {
				evt.data += v
			}
		}
		if evt.name != "" {
			events = append(events, evt)
		}
	}
	return events
}

func doGenerate(t *testing.T, srv *Server, payload string) []sseEvent {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	return parseSSE(t, rec.Body.String())
}

func TestGenerateStreamsAndReports(t *testing.T) {
	srv := newTestServer(t)
	events := doGenerate(t, srv, `{"mode":"business_plan","topic":"火星奶茶店","style":"专业理性","words":800}`)

	require.NotEmpty(t, events)

	var deltas []string
	var done *sseEvent
	for i := range events {
		switch events[i].name {
		case "delta":
			deltas = append(deltas, events[i].data)
		case "done":
			done = &events[i]
		}
	}
	require.NotEmpty(t, deltas)
	require.NotNil(t, done, "missing done event")

	// 进行中快照带光标
	var delta struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(deltas[0]), &delta))
	assert.True(t, strings.HasSuffix(delta.Text, cursor))

	var final doneEvent
	require.NoError(t, json.Unmarshal([]byte(done.data), &final))
	assert.NotEmpty(t, final.ID)
	assert.NotEmpty(t, final.FullText)
	assert.NotContains(t, final.FullText, cursor)
	assert.Contains(t, final.HTML, "<h1>")
	assert.Len(t, final.Downloads, 3)
	assert.Equal(t, "ok", string(final.Report.History.Status))
	assert.Equal(t, "skipped", string(final.Report.Audio.Status))
	assert.Empty(t, final.AudioURL)
}

func TestGenerateEmptyTopicRejected(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"mode":"business_plan","topic":""}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateBadJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	events := doGenerate(t, srv, `{"mode":"social_post","topic":"奶茶测评"}`)

	var final doneEvent
	for _, e := range events {
		if e.name == "done" {
			require.NoError(t, json.Unmarshal([]byte(e.data), &final))
		}
	}

	url, ok := final.Downloads["article.md"]
	require.True(t, ok)

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "article.md")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# 奶茶测评"))
}

func TestDownloadUnknownRun(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/exports/nope/article.md", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryNewestFirst(t *testing.T) {
	srv := newTestServer(t)
	doGenerate(t, srv, `{"mode":"business_plan","topic":"第一条"}`)
	doGenerate(t, srv, `{"mode":"business_plan","topic":"第二条"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var records []history.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "第二条", records[0].Topic)
	assert.Equal(t, "第一条", records[1].Topic)
}

func TestHistoryEmpty(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestModes(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/modes", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var modes []modeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &modes))
	assert.Len(t, modes, 4)
	for _, m := range modes {
		assert.NotEmpty(t, m.Label)
		assert.NotEmpty(t, m.Placeholder)
	}
}

func TestAudioMissing(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audio", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexServed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "巴巴塔")
}
