package user

import "time"

// 用户账号状态。
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusBanned   = "banned"
)

// User 账号记录。PasswordHash 存 bcrypt 摘要，永远不回传给客户端。
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	AvatarURL    string    `gorm:"size:500" json:"avatarUrl,omitempty"`
	Status       string    `gorm:"size:16;default:active" json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Token 已签发的访问令牌，登出时置为无效。
type Token struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	Token     string    `gorm:"size:500;not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	IsValid   bool      `gorm:"default:true;index"`
	CreatedAt time.Time
}

func (Token) TableName() string { return "user_tokens" }
