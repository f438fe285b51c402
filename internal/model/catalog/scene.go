package catalog

import "time"

// Scene 场景卡。BackgroundPrompt 会在组装上下文时追加到系统提示词后。
type Scene struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	BackgroundPrompt string    `gorm:"type:text;not null" json:"backgroundPrompt"`
	ImageURL         string    `gorm:"size:500" json:"imageUrl,omitempty"`
	Category         string    `gorm:"size:50;index" json:"category,omitempty"`
	IsPublic         bool      `gorm:"default:true;index" json:"isPublic"`
	CreatedBy        string    `gorm:"size:36" json:"createdBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (Scene) TableName() string { return "scenes" }
