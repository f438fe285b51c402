package speech

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chenweiyi/roleverse/backend/internal/config"
	speechService "github.com/chenweiyi/roleverse/backend/internal/service/speech"
)

func TestListVoicesProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voice/list" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"voice_type":"qiniu_zh_female_wwxkjx","voice_name":"温婉小静"}]`))
	}))
	defer upstream.Close()

	svc := speechService.NewService(config.VoiceConfig{
		BaseURL: upstream.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/voice/list", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"success":true`) || !strings.Contains(body, "qiniu_zh_female_wwxkjx") {
		t.Errorf("body = %s", body)
	}
}

func TestListVoicesUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	svc := speechService.NewService(config.VoiceConfig{
		BaseURL: upstream.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/voice/list", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}
