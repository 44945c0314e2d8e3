package chat

import "errors"

var (
	errSessionNotFound = errors.New("会话不存在")
	errNoProvider      = errors.New("未配置 AI 模型")
)

type CreateSessionDTO struct {
	Title string `json:"title"`
	Model string `json:"model"`
}

type RenameSessionDTO struct {
	Title string `json:"title" binding:"required"`
}

type SendMessageDTO struct {
	Content string `json:"content" binding:"required"`
}

// ModelVO describes one configured provider for the model picker.
type ModelVO struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Model string `json:"model"`
}
