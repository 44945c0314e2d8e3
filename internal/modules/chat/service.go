package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/mqxu/campus-api/internal/config"
	"github.com/mqxu/campus-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// How many prior turns are replayed to the model per completion.
const historyWindow = 20

// Service owns chat sessions/messages and proxies completions to the
// configured AI providers. Sessions are scoped to their owner; every query
// filters by user id.
type Service struct {
	db        *gorm.DB
	providers []config.AIProvider
	completer Completer
	logger    *zap.Logger
}

func NewService(db *gorm.DB, providers []config.AIProvider, completer Completer, logger *zap.Logger) *Service {
	return &Service{db: db, providers: providers, completer: completer, logger: logger}
}

// Models lists the configured providers for the client model picker.
func (s *Service) Models() []ModelVO {
	out := make([]ModelVO, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, ModelVO{Name: p.Name, Type: p.Type, Model: p.Model})
	}
	return out
}

// CreateSession opens a conversation for the user.
func (s *Service) CreateSession(ctx context.Context, userID int64, dto *CreateSessionDTO) (*models.ChatSession, error) {
	title := strings.TrimSpace(dto.Title)
	if title == "" {
		title = "新会话"
	}
	session := &models.ChatSession{
		UserID: userID,
		Title:  title,
		Model:  strings.TrimSpace(dto.Model),
	}
	return session, s.db.WithContext(ctx).Create(session).Error
}

// ListSessions returns the user's conversations, newest first.
func (s *Service) ListSessions(ctx context.Context, userID int64) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// RenameSession updates the session title.
func (s *Service) RenameSession(ctx context.Context, userID, sessionID int64, title string) error {
	result := s.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errSessionNotFound
	}
	return nil
}

// DeleteSession removes a conversation and its messages.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&models.ChatSession{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errSessionNotFound
		}
		return tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error
	})
}

// ListMessages returns the session's messages in order.
func (s *Service) ListMessages(ctx context.Context, userID, sessionID int64) ([]models.ChatMessage, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}

// SendMessage persists the user's turn, asks the session's provider for a
// reply, and persists and returns the assistant turn.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID int64, content string) (*models.ChatMessage, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	provider, err := s.resolveProvider(session.Model)
	if err != nil {
		return nil, err
	}

	userMsg := &models.ChatMessage{SessionID: sessionID, Role: models.ChatRoleUser, Content: content}
	if err := s.db.WithContext(ctx).Create(userMsg).Error; err != nil {
		return nil, err
	}

	turns, err := s.recentTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reply, err := s.completer.Complete(ctx, provider, turns)
	if err != nil {
		s.logger.Warn("completion failed",
			zap.Int64("session_id", sessionID),
			zap.String("provider", provider.Name),
			zap.Error(err),
		)
		return nil, err
	}

	assistantMsg := &models.ChatMessage{SessionID: sessionID, Role: models.ChatRoleAssistant, Content: reply}
	if err := s.db.WithContext(ctx).Create(assistantMsg).Error; err != nil {
		return nil, err
	}
	// Bump the session so it sorts to the top of the list. The reply is
	// already persisted, so a failed bump only affects ordering.
	if err := s.db.WithContext(ctx).Model(session).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		s.logger.Warn("session bump failed", zap.Int64("session_id", sessionID), zap.Error(err))
	}
	return assistantMsg, nil
}

func (s *Service) ownedSession(ctx context.Context, userID, sessionID int64) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Service) recentTurns(ctx context.Context, sessionID int64) ([]Turn, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(historyWindow).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		turns = append(turns, Turn{Role: messages[i].Role, Content: messages[i].Content})
	}
	return turns, nil
}

// resolveProvider picks the provider matching the session's model name,
// falling back to the first configured provider.
func (s *Service) resolveProvider(name string) (*config.AIProvider, error) {
	if len(s.providers) == 0 {
		return nil, errNoProvider
	}
	for i := range s.providers {
		if s.providers[i].Name == name || s.providers[i].Model == name {
			return &s.providers[i], nil
		}
	}
	return &s.providers[0], nil
}
