package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// voiceClient 拉取网关的音色列表。
type voiceClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ListVoices 透传网关的音色列表，返回原始 JSON 数组。
func (s *Service) ListVoices(ctx context.Context) (json.RawMessage, error) {
	return s.voices.list(ctx)
}

func (v *voiceClient) list(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(v.baseURL, "/")+"/voice/list", nil)
	if err != nil {
		return nil, fmt.Errorf("构造音色列表请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求音色列表失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("音色列表返回 %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("读取音色列表失败: %w", err)
	}
	return json.RawMessage(raw), nil
}
