// Package turn 驱动一次完整的对话回合：
// 音频解码、上传、识别、上下文组装、补全、落库、合成。
package turn

import (
	"context"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/chenweiyi/roleverse/backend/internal/analysis/emotion"
	"github.com/chenweiyi/roleverse/backend/internal/audio"
	"github.com/chenweiyi/roleverse/backend/internal/fault"
	catalogmodel "github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	chatmodel "github.com/chenweiyi/roleverse/backend/internal/model/chat"
	"github.com/chenweiyi/roleverse/backend/internal/service/ai"
	catalogsvc "github.com/chenweiyi/roleverse/backend/internal/service/catalog"
	chatsvc "github.com/chenweiyi/roleverse/backend/internal/service/chat"
)

// 进度步骤名，客户端依赖这些常量渲染处理状态。
const (
	StepSpeechRecognition = "speech_recognition"
	StepTextRecognized    = "text_recognized"
	StepAIThinking        = "ai_thinking"
	StepGeneratingVoice   = "generating_voice"
)

// Input 一次回合的输入。Text 与 AudioData 二选一。
type Input struct {
	SessionID   string
	CharacterID string
	Text        string
	AudioData   string
	Format      string
	VoiceType   string
}

// Result 回合结果。Degraded 表示补全降级为兜底话术。
type Result struct {
	Text         string
	OriginalText string
	AudioData    string
	AudioURL     string
	Emotion      string
	Degraded     bool
}

// Notifier 接收回合进行中的进度事件。
// 实现方负责保序投递，回合内的事件按调用顺序到达客户端。
type Notifier interface {
	Progress(step, message string, extra map[string]any)
}

// Transcriber 把音频 URL 转成文本。
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, format string) (string, error)
}

// Synthesizer 把文本转成 base64 音频，失败返回空串。
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceType string) string
}

// Uploader 上传音频并返回可访问地址，失败时返回本地回退地址或空串。
type Uploader interface {
	Upload(ctx context.Context, data []byte, format audio.Format) string
}

// Completer 执行模型补全，永不出错，失败体现为降级回复。
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) ai.Reply
}

// Orchestrator 协调一个回合里的所有协作方。
type Orchestrator struct {
	sessions    chatsvc.Store
	catalog     catalogsvc.Store
	uploader    Uploader
	transcriber Transcriber
	synthesizer Synthesizer
	assembler   *ai.Assembler
	completer   Completer
}

// NewOrchestrator 显式注入所有协作方。
func NewOrchestrator(
	sessions chatsvc.Store,
	catalog catalogsvc.Store,
	uploader Uploader,
	transcriber Transcriber,
	synthesizer Synthesizer,
	assembler *ai.Assembler,
	completer Completer,
) *Orchestrator {
	return &Orchestrator{
		sessions:    sessions,
		catalog:     catalog,
		uploader:    uploader,
		transcriber: transcriber,
		synthesizer: synthesizer,
		assembler:   assembler,
		completer:   completer,
	}
}

// TextTurn 处理一条文本消息，返回角色回复。
func (o *Orchestrator) TextTurn(ctx context.Context, n Notifier, in Input) (Result, error) {
	if in.SessionID == "" {
		return Result{}, fault.New(fault.Validation, "缺少会话ID")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, fault.New(fault.Validation, "消息内容为空")
	}

	return o.respond(ctx, n, in, turnState{
		userText:    text,
		messageType: chatmodel.TypeText,
	})
}

// VoiceTurn 处理一条语音消息：解码、上传、识别后走文本回合的后半程。
func (o *Orchestrator) VoiceTurn(ctx context.Context, n Notifier, in Input) (Result, error) {
	if in.SessionID == "" {
		return Result{}, fault.New(fault.Validation, "缺少会话ID")
	}
	if strings.TrimSpace(in.AudioData) == "" {
		return Result{}, fault.New(fault.Validation, "缺少音频数据")
	}

	raw, err := audio.Decode(in.AudioData)
	if err != nil {
		return Result{}, err
	}
	format, err := audio.DetectFormat(raw)
	if err != nil {
		return Result{}, err
	}
	// 嗅探失败时信任客户端申报的格式。
	declared := strings.ToLower(strings.TrimSpace(in.Format))
	if format == audio.FormatUnknown && declared != "" {
		format = audio.Format(declared)
	}

	audioURL := o.uploader.Upload(ctx, raw, format)
	if audioURL == "" {
		// 远端与本地回退都写不进去，没有可识别的地址，提前终止。
		return Result{}, fault.New(fault.Transient, "音频暂存失败，请稍后再试")
	}

	n.Progress(StepSpeechRecognition, "正在识别语音...", nil)

	recognized, err := o.transcriber.Transcribe(ctx, audioURL, string(format))
	if err != nil {
		return Result{}, err
	}
	recognized = strings.TrimSpace(recognized)
	if recognized == "" {
		return Result{}, fault.New(fault.Validation, "语音识别失败，未识别到文字")
	}

	n.Progress(StepTextRecognized, "", map[string]any{
		"recognizedText": recognized,
		"audioUrl":       audioURL,
	})

	return o.respond(ctx, n, in, turnState{
		userText:    recognized,
		messageType: chatmodel.TypeVoice,
		audioURL:    audioURL,
	})
}

// turnState 两种回合共用的中间态。
type turnState struct {
	userText    string
	messageType string
	audioURL    string
}

// respond 执行回合的公共后半程：上下文、补全、落库、合成。
func (o *Orchestrator) respond(ctx context.Context, n Notifier, in Input, st turnState) (Result, error) {
	session, err := o.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return Result{}, err
	}

	characterID := in.CharacterID
	if characterID == "" {
		characterID = session.CharacterID
	}

	var character *catalogmodel.Character
	if c, err := o.catalog.GetCharacter(ctx, characterID); err == nil {
		character = &c
	} else if !fault.Is(err, fault.NotFound) {
		return Result{}, err
	}

	var scene *catalogmodel.Scene
	if session.SceneID != "" {
		if sc, err := o.catalog.GetScene(ctx, session.SceneID); err == nil {
			scene = &sc
		} else if !fault.Is(err, fault.NotFound) {
			return Result{}, err
		}
	}

	history, err := o.sessions.GetRecentMessages(ctx, session.ID, o.assembler.Limit())
	if err != nil {
		return Result{}, err
	}

	n.Progress(StepAIThinking, "正在思考回复...", nil)

	messages := o.assembler.Build(character, scene, history, st.userText)
	reply := o.completer.Complete(ctx, messages)

	label := emotion.Analyze(st.userText, reply.Text).Emotion

	userMsg := chatmodel.Message{
		SessionID: session.ID,
		Sender:    chatmodel.SenderUser,
		Content:   st.userText,
		Type:      st.messageType,
	}
	if st.messageType == chatmodel.TypeVoice {
		userMsg.AudioURL = st.audioURL
		userMsg.OriginalText = st.userText
	}
	if _, err := o.sessions.AppendMessage(ctx, userMsg); err != nil {
		return Result{}, err
	}

	if _, err := o.sessions.AppendMessage(ctx, chatmodel.Message{
		SessionID: session.ID,
		Sender:    chatmodel.SenderCharacter,
		Content:   reply.Text,
		Type:      chatmodel.TypeText,
		Emotion:   string(label),
		VoiceType: in.VoiceType,
	}); err != nil {
		return Result{}, err
	}

	result := Result{
		Text:     reply.Text,
		Emotion:  string(label),
		Degraded: reply.Degraded,
	}
	if st.messageType == chatmodel.TypeVoice {
		result.OriginalText = st.userText
		result.AudioURL = st.audioURL
	}

	// 仅在请求显式携带音色时合成语音，文本与语音回合同一规则。
	if in.VoiceType != "" {
		n.Progress(StepGeneratingVoice, "正在生成语音...", nil)
		result.AudioData = o.synthesizer.Synthesize(ctx, reply.Text, in.VoiceType)
	}

	if reply.Degraded {
		log.Printf("[turn] session=%s 补全降级，返回兜底话术", session.ID)
	}
	return result, nil
}
