package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/chenweiyi/roleverse/backend/internal/config"
	catalogModel "github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	chatModel "github.com/chenweiyi/roleverse/backend/internal/model/chat"
	authService "github.com/chenweiyi/roleverse/backend/internal/service/auth"
	catalogService "github.com/chenweiyi/roleverse/backend/internal/service/catalog"
	chatService "github.com/chenweiyi/roleverse/backend/internal/service/chat"
)

type testEnv struct {
	router   http.Handler
	sessions chatService.Store
	catalog  catalogService.Store
	authSvc  *authService.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	authSvc := authService.NewService(authService.NewMemoryStore(), config.AuthConfig{JWTSecret: "test-secret"})
	cat := catalogService.NewMemoryStore(catalogModel.DefaultCharacters(), catalogModel.DefaultScenes())
	sessions := chatService.NewMemoryStore()

	r := chi.NewRouter()
	New(sessions, cat, authSvc).RegisterRoutes(r)
	return &testEnv{router: r, sessions: sessions, catalog: cat, authSvc: authSvc}
}

func (e *testEnv) registerUser(t *testing.T, username string) string {
	t.Helper()
	result, err := e.authSvc.Register(context.Background(), username, username+"@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	return result.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) firstCharacter(t *testing.T) catalogModel.Character {
	t.Helper()
	characters, err := e.catalog.ListCharacters(context.Background())
	if err != nil || len(characters) == 0 {
		t.Fatalf("no characters: %v", err)
	}
	return characters[0]
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "alice")
	char := env.firstCharacter(t)

	rec := env.do(t, http.MethodPost, "/sessions", token, map[string]string{"characterId": char.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var session chatModel.Session
	decodeData(t, rec, &session)
	if session.CharacterID != char.ID {
		t.Errorf("characterId = %q", session.CharacterID)
	}
	if session.Title == "" {
		t.Error("session should get a default title")
	}

	// 建会话后角色使用计数应上升。
	updated, _ := env.catalog.GetCharacter(context.Background(), char.ID)
	if updated.UsageCount != char.UsageCount+1 {
		t.Errorf("usageCount = %d, want %d", updated.UsageCount, char.UsageCount+1)
	}
}

func TestCreateSessionUnknownCharacter(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "alice")

	rec := env.do(t, http.MethodPost, "/sessions", token, map[string]string{"characterId": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateSessionRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/sessions", "", map[string]string{"characterId": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListSessionsScopedToUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	char := env.firstCharacter(t)

	env.do(t, http.MethodPost, "/sessions", alice, map[string]string{"characterId": char.ID})
	env.do(t, http.MethodPost, "/sessions", alice, map[string]string{"characterId": char.ID})
	env.do(t, http.MethodPost, "/sessions", bob, map[string]string{"characterId": char.ID})

	rec := env.do(t, http.MethodGet, "/sessions", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sessions []chatModel.Session
	decodeData(t, rec, &sessions)
	if len(sessions) != 2 {
		t.Fatalf("alice should see 2 sessions, got %d", len(sessions))
	}
}

func TestGetSessionForbiddenForOtherUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	char := env.firstCharacter(t)

	rec := env.do(t, http.MethodPost, "/sessions", alice, map[string]string{"characterId": char.ID})
	var session chatModel.Session
	decodeData(t, rec, &session)

	if rec = env.do(t, http.MethodGet, "/sessions/"+session.ID, bob, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListMessagesPagination(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "alice")
	char := env.firstCharacter(t)

	rec := env.do(t, http.MethodPost, "/sessions", token, map[string]string{"characterId": char.ID})
	var session chatModel.Session
	decodeData(t, rec, &session)

	ctx := context.Background()
	for _, content := range []string{"一", "二", "三"} {
		if _, err := env.sessions.AppendMessage(ctx, chatModel.Message{
			SessionID: session.ID,
			Sender:    chatModel.SenderUser,
			Content:   content,
			Type:      chatModel.TypeText,
		}); err != nil {
			t.Fatal(err)
		}
	}

	rec = env.do(t, http.MethodGet, "/sessions/"+session.ID+"/messages?limit=2&offset=1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var messages []chatModel.Message
	decodeData(t, rec, &messages)
	if len(messages) != 2 {
		t.Fatalf("len = %d", len(messages))
	}
	if messages[0].Content != "二" || messages[1].Content != "三" {
		t.Errorf("page = %q, %q", messages[0].Content, messages[1].Content)
	}
}

func TestUpdateSessionScene(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "alice")
	char := env.firstCharacter(t)

	rec := env.do(t, http.MethodPost, "/sessions", token, map[string]string{"characterId": char.ID})
	var session chatModel.Session
	decodeData(t, rec, &session)

	scenes, _ := env.catalog.ListScenes(context.Background())
	rec = env.do(t, http.MethodPut, "/sessions/"+session.ID+"/scene", token, map[string]string{"sceneId": scenes[0].ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	updated, _ := env.sessions.GetSession(context.Background(), session.ID)
	if updated.SceneID != scenes[0].ID {
		t.Errorf("sceneId = %q", updated.SceneID)
	}

	if rec = env.do(t, http.MethodPut, "/sessions/"+session.ID+"/scene", token, map[string]string{"sceneId": "missing"}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown scene status = %d", rec.Code)
	}
}
