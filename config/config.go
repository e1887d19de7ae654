// Package config 负责应用配置：yaml 文件为底，BABATA_ 前缀的
// 环境变量覆盖，.env 先于一切加载。
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	LLM     LLMConfig     `koanf:"llm"`
	Speech  SpeechConfig  `koanf:"speech"`
	History HistoryConfig `koanf:"history"`
	Logging LoggingConfig `koanf:"logging"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type LLMConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
}

type SpeechConfig struct {
	// Enabled 关掉后整个语音分支不再参与扇出。
	Enabled    bool   `koanf:"enabled"`
	Model      string `koanf:"model"`
	Voice      string `koanf:"voice"`
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	OutputPath string `koanf:"output_path"`
}

type HistoryConfig struct {
	Path string `koanf:"path"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
}

// Load 读取配置。path 为空或文件不存在时只用默认值加环境变量。
func Load(path string) (*Config, error) {
	godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
		}
	}

	// 双下划线分段，单下划线保留：BABATA_LLM__API_KEY -> llm.api_key。
	if err := k.Load(env.Provider("BABATA_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "BABATA_")), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// 缺省值
	setDefault(k, "server.addr", ":8080")
	setDefault(k, "llm.provider", "deepseek")
	setDefault(k, "llm.model", "deepseek-chat")
	setDefault(k, "speech.enabled", true)
	setDefault(k, "speech.model", "tts-1")
	setDefault(k, "speech.voice", "alloy")
	setDefault(k, "speech.output_path", "voice.mp3")
	setDefault(k, "history.path", "history.csv")
	setDefault(k, "logging.level", "info")

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefault(k *koanf.Koanf, key string, val any) {
	if !k.Exists(key) {
		k.Set(key, val)
	}
}
