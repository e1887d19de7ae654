// Package speech 是语音合成边界：把清洗后的全文交给语音服务，
// 拿回一段音频字节。合成失败只影响音频分支，由调用方隔离。
package speech

import (
	"context"
	"errors"
	"io"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// SynthesisError 包装语音服务不可达或拒绝输入的失败。
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return "speech synthesis: " + e.Err.Error()
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer 把文本变成音频字节。输入应当已经过 Sanitize；
// 这里不做长度上限，要控成本的调用方自己先截断。
type Synthesizer interface {
	Render(ctx context.Context, text string) ([]byte, error)
}

// Settings 提供给具体实现的基础配置。
type Settings struct {
	Model   string
	Voice   string
	APIKey  string
	BaseURL string
}

// OpenAISpeech implements Synthesizer using the openai-go audio/speech
// endpoint. 兼容任何 OpenAI 风格的 TTS 网关，换 base_url 即可。
type OpenAISpeech struct {
	Model string
	Voice string
	Opts  []option.RequestOption
}

func NewOpenAISpeechFromConfig(cfg *Settings) (*OpenAISpeech, error) {
	if cfg == nil {
		return nil, errors.New("speech config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("speech api key missing; provide speech.api_key")
	}
	model := cfg.Model
	if model == "" {
		model = "tts-1"
	}
	voice := cfg.Voice
	if voice == "" {
		voice = "alloy"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAISpeech{Model: model, Voice: voice, Opts: opts}, nil
}

func (s *OpenAISpeech) Render(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, &SynthesisError{Err: errors.New("empty input")}
	}

	client := openai.NewClient(s.Opts...)
	resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.Voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	return data, nil
}
