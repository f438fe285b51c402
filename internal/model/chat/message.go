package chat

import "time"

// Message sender roles and types.
const (
	SenderUser      = "user"
	SenderCharacter = "character"

	TypeText  = "text"
	TypeVoice = "voice"
)

// Message persists one turn side. Messages are append-only: the pipeline
// never updates or deletes them.
type Message struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID    string    `gorm:"size:36;not null;index" json:"sessionId"`
	Sender       string    `gorm:"size:16;not null;index" json:"sender"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Type         string    `gorm:"column:message_type;size:16;default:text" json:"type"`
	Emotion      string    `gorm:"size:50" json:"emotion,omitempty"`
	AudioURL     string    `gorm:"size:500" json:"audioUrl,omitempty"`
	OriginalText string    `gorm:"type:text" json:"originalText,omitempty"`
	VoiceType    string    `gorm:"size:100" json:"voiceType,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

// TableName keeps the original schema naming.
func (Message) TableName() string { return "chat_messages" }
