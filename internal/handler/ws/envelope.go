package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 入站与出站信封类型。
const (
	TypeConnection      = "connection"
	TypeConnectionAck   = "connection_ack"
	TypeConnectionAckOK = "connection_ack_response"
	TypeAudio           = "audio"
	TypeText            = "text"
	TypeProcessing      = "processing"
	TypeResponse        = "response"
	TypeError           = "error"
)

// Envelope 客户端发来的消息信封。三个元字段缺一不可，缺失即丢弃。
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	MessageID string          `json:"messageId"`
}

// Valid 校验信封结构完整性。
func (e *Envelope) Valid() bool {
	return e.Type != "" && e.Timestamp != 0 && e.MessageID != ""
}

// outEnvelope 服务端下发的信封。
type outEnvelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
	MessageID string `json:"messageId"`
}

func newOutEnvelope(msgType string, data any, messageID string) outEnvelope {
	if messageID == "" {
		messageID = newMessageID()
	}
	return outEnvelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		MessageID: messageID,
	}
}

func newMessageID() string {
	return fmt.Sprintf("msg_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// audioPayload 语音消息载荷。
type audioPayload struct {
	SessionID string `json:"sessionId"`
	AudioData string `json:"audioData"`
	Format    string `json:"format"`
	VoiceType string `json:"voiceType"`
}

// textPayload 文本消息载荷。
type textPayload struct {
	SessionID   string `json:"sessionId"`
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
	VoiceType   string `json:"voiceType"`
}

// responsePayload 回合完成后的响应载荷。
type responsePayload struct {
	Text         string `json:"text"`
	AudioData    string `json:"audioData,omitempty"`
	AudioURL     string `json:"audioUrl,omitempty"`
	OriginalText string `json:"originalText,omitempty"`
	Emotion      string `json:"emotion"`
	Degraded     bool   `json:"degraded,omitempty"`
}
