package turn

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/chenweiyi/roleverse/backend/internal/audio"
	"github.com/chenweiyi/roleverse/backend/internal/fault"
	catalogmodel "github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	chatmodel "github.com/chenweiyi/roleverse/backend/internal/model/chat"
	"github.com/chenweiyi/roleverse/backend/internal/service/ai"
	catalogsvc "github.com/chenweiyi/roleverse/backend/internal/service/catalog"
	chatsvc "github.com/chenweiyi/roleverse/backend/internal/service/chat"
)

type recordingNotifier struct {
	mu    sync.Mutex
	steps []string
}

func (n *recordingNotifier) Progress(step, _ string, _ map[string]any) {
	n.mu.Lock()
	n.steps = append(n.steps, step)
	n.mu.Unlock()
}

type fakeTranscriber struct {
	text string
	err  error
	url  string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioURL, _ string) (string, error) {
	f.url = audioURL
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio string
	voice string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _, voiceType string) string {
	f.voice = voiceType
	return f.audio
}

type fakeUploader struct {
	url string
}

func (f *fakeUploader) Upload(_ context.Context, _ []byte, _ audio.Format) string {
	return f.url
}

type fakeCompleter struct {
	reply ai.Reply
	msgs  []*schema.Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []*schema.Message) ai.Reply {
	f.msgs = messages
	return f.reply
}

type fixture struct {
	orc      *Orchestrator
	sessions chatsvc.Store
	catalog  *catalogsvc.MemoryStore
	session  chatmodel.Session
	char     catalogmodel.Character
	up       *fakeUploader
	trans    *fakeTranscriber
	synth    *fakeSynthesizer
	comp     *fakeCompleter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	cat := catalogsvc.NewMemoryStore(catalogmodel.DefaultCharacters(), catalogmodel.DefaultScenes())
	characters, _ := cat.ListCharacters(ctx)
	char := characters[0]

	sessions := chatsvc.NewMemoryStore()
	session, err := sessions.CreateSession(ctx, chatmodel.Session{
		UserID:      "user-1",
		CharacterID: char.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	up := &fakeUploader{url: "https://cdn.example.com/audio/1_a.webm"}
	trans := &fakeTranscriber{text: "你好啊"}
	synth := &fakeSynthesizer{audio: "bW9jaw=="}
	comp := &fakeCompleter{reply: ai.Reply{Text: "很高兴见到你"}}

	orc := NewOrchestrator(
		sessions, cat, up,
		trans, synth, ai.NewAssembler(4), comp,
	)

	return &fixture{orc: orc, sessions: sessions, catalog: cat, session: session, char: char, up: up, trans: trans, synth: synth, comp: comp}
}

func TestTextTurnPersistsBothMessages(t *testing.T) {
	f := newFixture(t)
	n := &recordingNotifier{}

	res, err := f.orc.TextTurn(context.Background(), n, Input{
		SessionID: f.session.ID,
		Text:      "你好",
	})
	if err != nil {
		t.Fatalf("TextTurn: %v", err)
	}
	if res.Text != "很高兴见到你" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Degraded {
		t.Error("should not be degraded")
	}
	if res.Emotion == "" {
		t.Error("result must carry an emotion label")
	}

	messages, _ := f.sessions.GetRecentMessages(context.Background(), f.session.ID, 10)
	if len(messages) != 2 {
		t.Fatalf("expected user+character messages, got %d", len(messages))
	}
	if messages[0].Sender != chatmodel.SenderUser || messages[0].Content != "你好" {
		t.Errorf("user message = %+v", messages[0])
	}
	if messages[1].Sender != chatmodel.SenderCharacter || messages[1].Content != "很高兴见到你" {
		t.Errorf("character message = %+v", messages[1])
	}

	if len(n.steps) != 1 || n.steps[0] != StepAIThinking {
		t.Errorf("text turn without voice should emit only ai_thinking, got %v", n.steps)
	}
}

func TestTextTurnValidation(t *testing.T) {
	f := newFixture(t)
	n := &recordingNotifier{}

	if _, err := f.orc.TextTurn(context.Background(), n, Input{Text: "hi"}); !fault.Is(err, fault.Validation) {
		t.Errorf("missing session id: got %v", err)
	}
	if _, err := f.orc.TextTurn(context.Background(), n, Input{SessionID: f.session.ID, Text: "  "}); !fault.Is(err, fault.Validation) {
		t.Errorf("blank text: got %v", err)
	}
}

func TestTextTurnMissingSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.orc.TextTurn(context.Background(), &recordingNotifier{}, Input{
		SessionID: "missing",
		Text:      "你好",
	})
	if !fault.Is(err, fault.NotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestVoiceTurnFullPipeline(t *testing.T) {
	f := newFixture(t)
	n := &recordingNotifier{}

	wav := make([]byte, 64)
	copy(wav[0:4], "RIFF")
	copy(wav[8:12], "WAVE")

	res, err := f.orc.VoiceTurn(context.Background(), n, Input{
		SessionID: f.session.ID,
		AudioData: base64.StdEncoding.EncodeToString(wav),
		VoiceType: "qiniu_zh_male_wwxkjx",
	})
	if err != nil {
		t.Fatalf("VoiceTurn: %v", err)
	}

	if res.OriginalText != "你好啊" {
		t.Errorf("originalText = %q", res.OriginalText)
	}
	if res.AudioURL != "https://cdn.example.com/audio/1_a.webm" {
		t.Errorf("audioURL = %q", res.AudioURL)
	}
	if res.AudioData != "bW9jaw==" {
		t.Errorf("audioData = %q", res.AudioData)
	}
	if f.synth.voice != "qiniu_zh_male_wwxkjx" {
		t.Errorf("synthesis voice = %q", f.synth.voice)
	}

	want := []string{StepSpeechRecognition, StepTextRecognized, StepAIThinking, StepGeneratingVoice}
	if len(n.steps) != len(want) {
		t.Fatalf("steps = %v", n.steps)
	}
	for i := range want {
		if n.steps[i] != want[i] {
			t.Fatalf("step[%d] = %q, want %q", i, n.steps[i], want[i])
		}
	}

	messages, _ := f.sessions.GetRecentMessages(context.Background(), f.session.ID, 10)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	userMsg := messages[0]
	if userMsg.Type != chatmodel.TypeVoice {
		t.Errorf("user message type = %q", userMsg.Type)
	}
	if userMsg.AudioURL == "" || userMsg.OriginalText != "你好啊" {
		t.Errorf("voice message missing audio metadata: %+v", userMsg)
	}
}

func TestVoiceTurnWithoutVoiceTypeSkipsSynthesis(t *testing.T) {
	f := newFixture(t)
	n := &recordingNotifier{}

	wav := make([]byte, 64)
	copy(wav[0:4], "RIFF")
	copy(wav[8:12], "WAVE")

	res, err := f.orc.VoiceTurn(context.Background(), n, Input{
		SessionID: f.session.ID,
		AudioData: base64.StdEncoding.EncodeToString(wav),
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.synth.voice != "" {
		t.Fatalf("synthesis must not run without an explicit voiceType, got voice %q", f.synth.voice)
	}
	if res.AudioData != "" {
		t.Fatalf("audioData = %q, want empty", res.AudioData)
	}
	for _, step := range n.steps {
		if step == StepGeneratingVoice {
			t.Fatal("generating_voice must not be emitted without an explicit voiceType")
		}
	}
}

func TestVoiceTurnAbortsWhenAudioCannotBeStored(t *testing.T) {
	f := newFixture(t)
	f.up.url = ""

	wav := make([]byte, 64)
	copy(wav[0:4], "RIFF")
	copy(wav[8:12], "WAVE")

	_, err := f.orc.VoiceTurn(context.Background(), &recordingNotifier{}, Input{
		SessionID: f.session.ID,
		AudioData: base64.StdEncoding.EncodeToString(wav),
	})
	if !fault.Is(err, fault.Transient) {
		t.Fatalf("expected transient fault, got %v", err)
	}
	if f.trans.url != "" {
		t.Error("transcription must not run without a stored audio URL")
	}

	messages, _ := f.sessions.GetRecentMessages(context.Background(), f.session.ID, 10)
	if len(messages) != 0 {
		t.Fatalf("aborted turn must not persist messages, got %d", len(messages))
	}
}

func TestVoiceTurnTranscriptionFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.trans.err = fault.New(fault.Transient, "语音识别服务暂时不可用")

	wav := make([]byte, 64)
	copy(wav[0:4], "RIFF")
	copy(wav[8:12], "WAVE")

	_, err := f.orc.VoiceTurn(context.Background(), &recordingNotifier{}, Input{
		SessionID: f.session.ID,
		AudioData: base64.StdEncoding.EncodeToString(wav),
	})
	if !fault.Is(err, fault.Transient) {
		t.Fatalf("expected transient fault, got %v", err)
	}

	messages, _ := f.sessions.GetRecentMessages(context.Background(), f.session.ID, 10)
	if len(messages) != 0 {
		t.Fatalf("aborted turn must not persist messages, got %d", len(messages))
	}
}

func TestVoiceTurnRejectsBadAudio(t *testing.T) {
	f := newFixture(t)
	_, err := f.orc.VoiceTurn(context.Background(), &recordingNotifier{}, Input{
		SessionID: f.session.ID,
		AudioData: "not-base64!!!",
	})
	if !fault.Is(err, fault.Validation) {
		t.Fatalf("expected validation fault, got %v", err)
	}
}

func TestDegradedCompletionStillResponds(t *testing.T) {
	f := newFixture(t)
	f.comp.reply = ai.Reply{Text: "抱歉，我现在无法回答您的问题，请稍后再试。", Degraded: true}

	res, err := f.orc.TextTurn(context.Background(), &recordingNotifier{}, Input{
		SessionID: f.session.ID,
		Text:      "你好",
	})
	if err != nil {
		t.Fatalf("degraded completion must not fail the turn: %v", err)
	}
	if !res.Degraded {
		t.Fatal("expected degraded flag")
	}
	if res.Text == "" {
		t.Fatal("degraded turn must still carry fallback text")
	}

	messages, _ := f.sessions.GetRecentMessages(context.Background(), f.session.ID, 10)
	if len(messages) != 2 {
		t.Fatalf("degraded turn should persist both messages, got %d", len(messages))
	}
}

func TestContextCarriesHistoryAndScene(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scenes, _ := f.catalog.ListScenes(ctx)
	f.sessions.UpdateSessionScene(ctx, f.session.ID, scenes[0].ID)

	// 先走一个回合制造历史。
	f.orc.TextTurn(ctx, &recordingNotifier{}, Input{SessionID: f.session.ID, Text: "第一句"})

	_, err := f.orc.TextTurn(ctx, &recordingNotifier{}, Input{SessionID: f.session.ID, Text: "第二句"})
	if err != nil {
		t.Fatal(err)
	}

	msgs := f.comp.msgs
	if len(msgs) < 4 {
		t.Fatalf("expected system+history+user, got %d messages", len(msgs))
	}
	if msgs[0].Role != schema.System {
		t.Fatal("first message must be system")
	}
	if !strings.Contains(msgs[0].Content, "场景设定：") {
		t.Errorf("system prompt missing scene setting: %q", msgs[0].Content)
	}
	if msgs[len(msgs)-1].Content != "第二句" {
		t.Errorf("last message should be current text, got %q", msgs[len(msgs)-1].Content)
	}
}
