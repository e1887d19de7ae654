package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"babata_assistant/config"
	"babata_assistant/generator"
	"babata_assistant/history"
	"babata_assistant/logger"
	"babata_assistant/pipeline"
	"babata_assistant/server"
	"babata_assistant/speech"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config server.addr)")
	topic := flag.String("topic", "", "topic for one-shot generation")
	mode := flag.String("mode", string(generator.ModeBusinessPlan), "mode: business_plan|social_post|weekly_report|relationship_advice")
	style := flag.String("style", string(generator.StyleProfessional), "AI tone style")
	words := flag.Int("words", 800, "target word count")
	voice := flag.Bool("voice", false, "synthesize speech for the result")
	mock := flag.Bool("mock", false, "use the mock LLM (no API calls)")
	outDir := flag.String("out", ".", "directory for one-shot export artifacts")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level)

	llm, err := buildLLM(cfg, *mock)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store := history.NewStore(cfg.History.Path)
	synth := buildSynth(cfg)

	if *serve {
		srv, err := server.New(llm, store, synth, cfg.Speech.OutputPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.Server.Addr
		if *addr != "" {
			listen = *addr
		}
		logger.Log.Infof("starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "--topic is required (or use --serve)")
		os.Exit(1)
	}

	req := generator.Request{
		Mode:  generator.Mode(*mode),
		Topic: *topic,
		Style: generator.Style(*style),
		Words: *words,
		Voice: *voice,
	}

	// 命令行模式：快照增量直接打到 stdout，结尾换行收束。
	var printed int
	render := func(snapshot string, done bool) {
		fmt.Print(snapshot[printed:])
		printed = len(snapshot)
		if done {
			fmt.Println()
		}
	}

	orch := pipeline.New(llm, store, synth, cfg.Speech.OutputPath)
	outcome, err := orch.Run(context.Background(), req, render)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for name, data := range outcome.Files {
		path := filepath.Join(*outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			logger.Log.Errorf("writing %s: %v", path, err)
			continue
		}
		logger.Log.Infof("wrote %s", path)
	}
	if outcome.AudioPath != "" {
		logger.Log.Infof("wrote %s", outcome.AudioPath)
	}
	logger.Log.Infof("pipeline finished state=%s", outcome.State)
}

func buildLLM(cfg *config.Config, mock bool) (generator.LLMClient, error) {
	if mock || cfg.LLM.Provider == "mock" {
		return generator.MockLLM{}, nil
	}
	switch cfg.LLM.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

// buildSynth 在语音关闭或缺密钥时返回 nil，
// 流水线会把音频分支标成 skipped。
func buildSynth(cfg *config.Config) speech.Synthesizer {
	if !cfg.Speech.Enabled {
		return nil
	}
	apiKey := cfg.Speech.APIKey
	if apiKey == "" {
		apiKey = cfg.LLM.APIKey
	}
	synth, err := speech.NewOpenAISpeechFromConfig(&speech.Settings{
		Model:   cfg.Speech.Model,
		Voice:   cfg.Speech.Voice,
		APIKey:  apiKey,
		BaseURL: cfg.Speech.BaseURL,
	})
	if err != nil {
		logger.Log.Warnf("speech disabled: %v", err)
		return nil
	}
	return synth
}
