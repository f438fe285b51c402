package catalog

import "time"

// Character 角色卡，system_prompt 与 voice_type 直接驱动补全与合成。
type Character struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	AvatarURL         string    `gorm:"size:500" json:"avatarUrl,omitempty"`
	Personality       string    `gorm:"type:text" json:"personality,omitempty"`
	Background        string    `gorm:"type:text" json:"background,omitempty"`
	VoiceType         string    `gorm:"size:100" json:"voiceType,omitempty"`
	Theme             string    `gorm:"size:50" json:"theme,omitempty"`
	Skills            string    `gorm:"type:json" json:"skills,omitempty"`
	EmotionalTendency string    `gorm:"type:json" json:"emotionalTendency,omitempty"`
	SystemPrompt      string    `gorm:"type:text" json:"systemPrompt,omitempty"`
	IsCustom          bool      `gorm:"default:false;index" json:"isCustom"`
	IsPublic          bool      `gorm:"default:true;index" json:"isPublic"`
	Author            string    `gorm:"size:100" json:"author,omitempty"`
	CreatedBy         string    `gorm:"size:36;index" json:"createdBy,omitempty"`
	UsageCount        int       `gorm:"default:0" json:"usageCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Character) TableName() string { return "characters" }
