package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mqxu/campus-api/internal/config"
	"github.com/mqxu/campus-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite is per-connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.ChatSession{}, &models.ChatMessage{}))
	return db
}

type fakeCompleter struct {
	reply string
	err   error
	turns []Turn
}

func (f *fakeCompleter) Complete(ctx context.Context, provider *config.AIProvider, turns []Turn) (string, error) {
	f.turns = turns
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newChatFixture(t *testing.T) (*Service, *fakeCompleter) {
	t.Helper()
	completer := &fakeCompleter{reply: "你好！"}
	providers := []config.AIProvider{{Name: "default", Type: "openai", Model: "gpt-4o-mini"}}
	return NewService(setupDB(t), providers, completer, zap.NewNop()), completer
}

func TestCreateSessionDefaultTitle(t *testing.T) {
	svc, _ := newChatFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{})
	require.NoError(t, err)
	assert.Equal(t, "新会话", session.Title)
	assert.NotZero(t, session.ID)

	named, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{Title: " 课程答疑 ", Model: "default"})
	require.NoError(t, err)
	assert.Equal(t, "课程答疑", named.Title)
}

func TestListSessionsScopedToOwner(t *testing.T) {
	svc, _ := newChatFixture(t)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{Title: "mine"})
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, 2, &CreateSessionDTO{Title: "theirs"})
	require.NoError(t, err)

	sessions, err := svc.ListSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "mine", sessions[0].Title)
}

func TestRenameSessionOwnership(t *testing.T) {
	svc, _ := newChatFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{Title: "old"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RenameSession(ctx, 2, session.ID, "hijacked"), errSessionNotFound)

	require.NoError(t, svc.RenameSession(ctx, 1, session.ID, "new"))
	sessions, err := svc.ListSessions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", sessions[0].Title)
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	svc, _ := newChatFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, session.ID, "hello")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteSession(ctx, 2, session.ID), errSessionNotFound)
	require.NoError(t, svc.DeleteSession(ctx, 1, session.ID))

	_, err = svc.ListMessages(ctx, 1, session.ID)
	assert.ErrorIs(t, err, errSessionNotFound)
}

func TestSendMessage(t *testing.T) {
	svc, completer := newChatFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{Model: "default"})
	require.NoError(t, err)

	reply, err := svc.SendMessage(ctx, 1, session.ID, "什么是 Redis？")
	require.NoError(t, err)
	assert.Equal(t, models.ChatRoleAssistant, reply.Role)
	assert.Equal(t, "你好！", reply.Content)

	// The completer saw the just-persisted user turn.
	require.NotEmpty(t, completer.turns)
	assert.Equal(t, models.ChatRoleUser, completer.turns[len(completer.turns)-1].Role)
	assert.Equal(t, "什么是 Redis？", completer.turns[len(completer.turns)-1].Content)

	messages, err := svc.ListMessages(ctx, 1, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.ChatRoleUser, messages[0].Role)
	assert.Equal(t, models.ChatRoleAssistant, messages[1].Role)
}

func TestSendMessageReplaysHistoryInOrder(t *testing.T) {
	svc, completer := newChatFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 1, session.ID, "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, session.ID, "second")
	require.NoError(t, err)

	// user "first", assistant reply, user "second" — oldest first.
	require.Len(t, completer.turns, 3)
	assert.Equal(t, "first", completer.turns[0].Content)
	assert.Equal(t, models.ChatRoleAssistant, completer.turns[1].Role)
	assert.Equal(t, "second", completer.turns[2].Content)
}

func TestSendMessageOwnership(t *testing.T) {
	svc, _ := newChatFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 2, session.ID, "not mine")
	assert.ErrorIs(t, err, errSessionNotFound)
}

func TestSendMessageCompleterFailure(t *testing.T) {
	svc, completer := newChatFixture(t)
	completer.err = errors.New("upstream 500")
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 1, session.ID, "hello")
	require.Error(t, err)

	// The user turn is kept; no assistant turn was written.
	messages, err := svc.ListMessages(ctx, 1, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.ChatRoleUser, messages[0].Role)
}

func TestSendMessageNoProvider(t *testing.T) {
	svc := NewService(setupDB(t), nil, &fakeCompleter{}, zap.NewNop())
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, &CreateSessionDTO{})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 1, session.ID, "hello")
	assert.ErrorIs(t, err, errNoProvider)
}

func TestModels(t *testing.T) {
	svc, _ := newChatFixture(t)
	vos := svc.Models()
	require.Len(t, vos, 1)
	assert.Equal(t, "default", vos[0].Name)
	assert.Equal(t, "gpt-4o-mini", vos[0].Model)
}
