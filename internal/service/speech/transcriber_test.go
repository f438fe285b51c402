package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chenweiyi/roleverse/backend/internal/config"
	"github.com/chenweiyi/roleverse/backend/internal/fault"
)

func testVoiceConfig(baseURL string) config.VoiceConfig {
	return config.VoiceConfig{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Timeout:      5 * time.Second,
		ASRRetries:   3,
		ASRBackoff:   time.Millisecond,
		DefaultVoice: "qiniu_zh_female_wwxkjx",
		SpeedRatio:   1.0,
		MaxTextLen:   500,
	}
}

func asrOK(text string) string {
	return `{"data":{"result":{"text":"` + text + `"}}}`
}

func TestTranscribeSuccess(t *testing.T) {
	var gotBody asrRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(asrOK("你好世界")))
	}))
	defer srv.Close()

	tr := NewTranscriber(testVoiceConfig(srv.URL), srv.Client())
	text, err := tr.Transcribe(context.Background(), "https://cdn.example.com/a.webm", "webm")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "你好世界" {
		t.Fatalf("got %q", text)
	}
	if gotBody.Model != "asr" {
		t.Errorf("model = %q, want asr", gotBody.Model)
	}
	if gotBody.Audio.Format != "wav" {
		t.Errorf("webm should be declared as wav, got %q", gotBody.Audio.Format)
	}
}

func TestTranscribeClientErrorDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"unsupported audio"}`))
	}))
	defer srv.Close()

	tr := NewTranscriber(testVoiceConfig(srv.URL), srv.Client())
	_, err := tr.Transcribe(context.Background(), "https://cdn.example.com/a.wav", "wav")
	if !fault.Is(err, fault.Permanent) {
		t.Fatalf("expected permanent fault, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls)
	}
	if !strings.Contains(err.Error(), "unsupported audio") {
		t.Errorf("error should carry upstream message, got %v", err)
	}
}

func TestTranscribeRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(asrOK("重试成功")))
	}))
	defer srv.Close()

	tr := NewTranscriber(testVoiceConfig(srv.URL), srv.Client())
	text, err := tr.Transcribe(context.Background(), "https://cdn.example.com/a.wav", "wav")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if text != "重试成功" {
		t.Fatalf("got %q", text)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestTranscribeExhaustionReturnsTransient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewTranscriber(testVoiceConfig(srv.URL), srv.Client())
	_, err := tr.Transcribe(context.Background(), "https://cdn.example.com/a.wav", "wav")
	if !fault.Is(err, fault.Transient) {
		t.Fatalf("expected transient fault, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestTranscribeEmptyResultBecomesValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(asrOK("")))
	}))
	defer srv.Close()

	tr := NewTranscriber(testVoiceConfig(srv.URL), srv.Client())
	_, err := tr.Transcribe(context.Background(), "https://cdn.example.com/a.wav", "wav")
	if !fault.Is(err, fault.Validation) {
		t.Fatalf("expected validation fault for empty result, got %v", err)
	}
}

func TestNormalizeFormat(t *testing.T) {
	cases := map[string]string{
		"wav":  "wav",
		"MP3":  "mp3",
		"ogg":  "ogg",
		"raw":  "raw",
		"webm": "wav",
		"flac": "wav",
		"m4a":  "wav",
		"":     "wav",
	}
	for in, want := range cases {
		if got := NormalizeFormat(in); got != want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
