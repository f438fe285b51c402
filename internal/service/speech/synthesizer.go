package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/chenweiyi/roleverse/backend/internal/config"
)

// Synthesizer 调用语音网关把文本转成 mp3 音频。
// 合成是尽力而为：任何失败都只记录日志并返回 nil，不影响文本回复。
type Synthesizer struct {
	baseURL      string
	apiKey       string
	defaultVoice string
	speedRatio   float64
	maxTextLen   int
	client       *http.Client
}

// NewSynthesizer 创建合成客户端。
func NewSynthesizer(cfg config.VoiceConfig, client *http.Client) *Synthesizer {
	maxLen := cfg.MaxTextLen
	if maxLen <= 0 {
		maxLen = 500
	}
	speed := cfg.SpeedRatio
	if speed <= 0 {
		speed = 1.0
	}
	return &Synthesizer{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		defaultVoice: cfg.DefaultVoice,
		speedRatio:   speed,
		maxTextLen:   maxLen,
		client:       client,
	}
}

type ttsRequest struct {
	Audio   ttsAudio   `json:"audio"`
	Request ttsPayload `json:"request"`
}

type ttsAudio struct {
	VoiceType  string  `json:"voice_type"`
	Encoding   string  `json:"encoding"`
	SpeedRatio float64 `json:"speed_ratio"`
}

type ttsPayload struct {
	Text string `json:"text"`
}

type ttsResponse struct {
	Data string `json:"data"`
}

// Synthesize 合成音频并返回 base64 编码的 mp3 数据，失败时返回空串。
// 文本超过上限时按 rune 截断并补省略号。
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceType string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if voiceType == "" {
		voiceType = s.defaultVoice
	}

	if runes := []rune(trimmed); len(runes) > s.maxTextLen {
		trimmed = string(runes[:s.maxTextLen]) + "..."
	}

	payload := ttsRequest{
		Audio:   ttsAudio{VoiceType: voiceType, Encoding: "mp3", SpeedRatio: s.speedRatio},
		Request: ttsPayload{Text: trimmed},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[speech] 构造合成请求失败: %v", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/voice/tts", bytes.NewReader(body))
	if err != nil {
		log.Printf("[speech] 构造合成请求失败: %v", err)
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[speech] 语音合成请求失败: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[speech] 语音合成返回 %d", resp.StatusCode)
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		log.Printf("[speech] 读取合成响应失败: %v", err)
		return ""
	}

	var parsed ttsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("[speech] 解析合成响应失败: %v", err)
		return ""
	}
	if parsed.Data == "" {
		log.Printf("[speech] 合成响应缺少音频数据")
		return ""
	}
	return parsed.Data
}
