package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/chenweiyi/roleverse/backend/internal/config"
	"github.com/chenweiyi/roleverse/backend/internal/fault"
)

// Transcriber 调用语音网关把音频 URL 转成文本。
type Transcriber struct {
	baseURL string
	apiKey  string
	retries int
	backoff time.Duration
	client  *http.Client
}

// NewTranscriber 创建识别客户端。
func NewTranscriber(cfg config.VoiceConfig, client *http.Client) *Transcriber {
	retries := cfg.ASRRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := cfg.ASRBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &Transcriber{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		retries: retries,
		backoff: backoff,
		client:  client,
	}
}

type asrRequest struct {
	Model string   `json:"model"`
	Audio asrAudio `json:"audio"`
}

type asrAudio struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

type asrResponse struct {
	Data struct {
		Result struct {
			Text string `json:"text"`
		} `json:"result"`
	} `json:"data"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NormalizeFormat 把任意容器格式映射到网关支持的 wav/mp3/ogg/raw。
// webm/flac/m4a 网关不认，统一按 wav 申报，识别引擎通常仍能解出来。
func NormalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "wav", "mp3", "ogg", "raw":
		return strings.ToLower(strings.TrimSpace(format))
	default:
		return "wav"
	}
}

// Transcribe 识别 audioURL 指向的音频。
// 4xx 不重试直接返回 Permanent；5xx 与网络错误按线性退避重试；
// 重试耗尽仍为空结果时返回 Validation（没有识别到语音）。
func (t *Transcriber) Transcribe(ctx context.Context, audioURL, format string) (string, error) {
	payload := asrRequest{Model: "asr"}
	payload.Audio.Format = NormalizeFormat(format)
	payload.Audio.URL = audioURL

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fault.Wrap(fault.Validation, "构造识别请求失败", err)
	}

	var lastErr error
	sawEmptyResult := false

	for attempt := 1; attempt <= t.retries; attempt++ {
		text, retryable, err := t.once(ctx, body)
		if err == nil {
			if text != "" {
				return text, nil
			}
			sawEmptyResult = true
			lastErr = fmt.Errorf("语音识别返回空结果")
		} else {
			if !retryable {
				return "", err
			}
			lastErr = err
		}

		log.Printf("[speech] 第%d次语音识别失败: %v", attempt, lastErr)
		if attempt < t.retries {
			select {
			case <-ctx.Done():
				return "", fault.Wrap(fault.Transient, "语音识别被取消", ctx.Err())
			case <-time.After(t.backoffFor(attempt)):
			}
		}
	}

	if sawEmptyResult {
		return "", fault.New(fault.Validation, "未能识别出语音内容，请重试")
	}
	return "", fault.Wrap(fault.Transient, "语音识别服务暂时不可用", lastErr)
}

// once 执行单次识别调用，retryable 指示失败后是否允许重试。
func (t *Transcriber) once(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/voice/asr", bytes.NewReader(body))
	if err != nil {
		return "", false, fault.Wrap(fault.Permanent, "构造识别请求失败", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("请求语音网关失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, fmt.Errorf("读取识别响应失败: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var parsed asrResponse
		_ = json.Unmarshal(raw, &parsed)
		msg := parsed.Message
		if msg == "" {
			msg = parsed.Error
		}
		if msg == "" {
			msg = "语音识别参数错误"
		}
		return "", false, fault.New(fault.Permanent, "语音识别失败: "+msg)
	}
	if resp.StatusCode != http.StatusOK {
		return "", true, fmt.Errorf("语音网关返回 %d", resp.StatusCode)
	}

	var parsed asrResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", true, fmt.Errorf("解析识别响应失败: %w", err)
	}

	return strings.TrimSpace(parsed.Data.Result.Text), true, nil
}

func (t *Transcriber) backoffFor(attempt int) time.Duration {
	return t.backoff * time.Duration(attempt)
}
