package models

// ChatSession groups the messages of one AI conversation.
type ChatSession struct {
	Base
	UserID int64  `json:"user_id" gorm:"index;not null"`
	Title  string `json:"title"   gorm:"size:128"`
	Model  string `json:"model"   gorm:"size:64"`
}

func (ChatSession) TableName() string { return "chat_session" }

// Message roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is a single turn inside a session.
type ChatMessage struct {
	Base
	SessionID int64  `json:"session_id" gorm:"index;not null"`
	Role      string `json:"role"       gorm:"size:16;not null"`
	Content   string `json:"content"    gorm:"type:longtext"`
}

func (ChatMessage) TableName() string { return "chat_message" }
