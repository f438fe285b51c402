// Package speech 封装语音网关的识别与合成接口。
package speech

import (
	"net/http"
	"time"

	"github.com/chenweiyi/roleverse/backend/internal/config"
)

// Service 聚合识别、合成与音色列表能力，共享一个 HTTP 客户端。
type Service struct {
	Transcriber *Transcriber
	Synthesizer *Synthesizer
	voices      *voiceClient
}

// NewService 创建语音服务。
func NewService(cfg config.VoiceConfig) *Service {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout <= 0 {
		client.Timeout = 30 * time.Second
	}

	return &Service{
		Transcriber: NewTranscriber(cfg, client),
		Synthesizer: NewSynthesizer(cfg, client),
		voices:      &voiceClient{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: client},
	}
}
