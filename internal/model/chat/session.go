package chat

import "time"

// Session lifecycle states.
const (
	SessionActive   = "active"
	SessionArchived = "archived"
	SessionDeleted  = "deleted"
)

// Session captures an ongoing exchange between one user and one character,
// optionally scoped to a scene. The pipeline only bumps MessageCount and
// LastMessageAt; creation and deletion belong to the CRUD layer.
type Session struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:36;not null;index" json:"userId"`
	CharacterID   string    `gorm:"size:36;not null;index" json:"characterId"`
	SceneID       string    `gorm:"size:36;index" json:"sceneId,omitempty"`
	Title         string    `gorm:"size:200" json:"title"`
	MessageCount  int       `gorm:"default:0" json:"messageCount"`
	LastMessageAt time.Time `gorm:"index" json:"lastMessageAt"`
	Status        string    `gorm:"size:16;default:active;index" json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName keeps the original schema naming.
func (Session) TableName() string { return "chat_sessions" }
