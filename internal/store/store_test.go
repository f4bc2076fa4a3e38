package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/models"
)

func seeded(chatID int64) *Store {
	s := New()
	s.SetChats([]models.Chat{{ID: chatID, Kind: models.ChatIndividual}})
	return s
}

func chatMsg(id, chatID int64, content string) models.ChatMessage {
	return models.ChatMessage{
		ID:        id,
		ChatID:    chatID,
		SenderID:  9,
		Content:   content,
		Kind:      models.KindChat,
		CreatedAt: time.Now(),
	}
}

func TestAppendUpdatesLastMessage(t *testing.T) {
	s := seeded(1)

	s.Append(1, chatMsg(10, 1, "hi"))

	chat, ok := s.Chat(1)
	require.True(t, ok)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "hi", chat.LastMessage.Content)
}

func TestAppendPresenceEventKeepsLastMessage(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(10, 1, "hi"))

	s.Append(1, models.ChatMessage{ID: 11, ChatID: 1, Kind: models.KindJoin, SenderName: "bob"})

	chat, _ := s.Chat(1)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, int64(10), chat.LastMessage.ID)
	assert.Len(t, s.Messages(1), 2)
}

func TestAppendReconcilesPendingSend(t *testing.T) {
	s := seeded(1)
	s.Append(1, models.ChatMessage{ClientID: "c-1", ChatID: 1, Content: "hi", Kind: models.KindChat, Pending: true})

	s.Append(1, models.ChatMessage{ID: 42, ClientID: "c-1", ChatID: 1, Content: "hi", Kind: models.KindChat})

	msgs := s.Messages(1)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(42), msgs[0].ID)
	assert.False(t, msgs[0].Pending)
}

func TestAppendReconcileKeepsNewerPreview(t *testing.T) {
	s := seeded(1)
	s.Append(1, models.ChatMessage{ClientID: "c-1", ChatID: 1, Content: "mine", Kind: models.KindChat, Pending: true})
	s.Append(1, chatMsg(50, 1, "newer"))

	// late server echo for the older pending copy
	s.Append(1, models.ChatMessage{ID: 42, ClientID: "c-1", ChatID: 1, Content: "mine", Kind: models.KindChat})

	chat, _ := s.Chat(1)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "newer", chat.LastMessage.Content)

	msgs := s.Messages(1)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(42), msgs[0].ID)
	assert.False(t, msgs[0].Pending)
}

func TestAppendReconcileUpdatesPreviewWhenStillNewest(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(40, 1, "older"))
	s.Append(1, models.ChatMessage{ClientID: "c-1", ChatID: 1, Content: "mine", Kind: models.KindChat, Pending: true})

	s.Append(1, models.ChatMessage{ID: 42, ClientID: "c-1", ChatID: 1, Content: "mine", Kind: models.KindChat})

	chat, _ := s.Chat(1)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, int64(42), chat.LastMessage.ID)
}

func TestEditContentUpdatesPreviewForLastMessage(t *testing.T) {
	s := seeded(42)
	s.Append(42, chatMsg(1, 42, "hi"))

	now := time.Now()
	s.EditContent(42, 1, "hello", &now)

	msgs := s.Messages(42)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)

	chat, _ := s.Chat(42)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "hello", chat.LastMessage.Content)
}

func TestEditContentNonLastLeavesPreview(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(1, 1, "first"))
	s.Append(1, chatMsg(2, 1, "second"))

	s.EditContent(1, 1, "edited", nil)

	chat, _ := s.Chat(1)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "second", chat.LastMessage.Content)
}

func TestEditContentUnknownIDIsNoop(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(1, 1, "hi"))

	s.EditContent(1, 99, "nope", nil)

	assert.Equal(t, "hi", s.Messages(1)[0].Content)
}

func TestEditContentClearsEditingMarker(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(1, 1, "hi"))
	s.SetEditing(1, 1)

	s.EditContent(1, 1, "hello", nil)

	_, ok := s.Editing(1)
	assert.False(t, ok)
}

func TestRemoveOnlyMessageClearsLastMessage(t *testing.T) {
	s := seeded(42)
	s.Append(42, chatMsg(1, 42, "hi"))

	s.Remove(42, 1)

	assert.Empty(t, s.Messages(42))
	chat, _ := s.Chat(42)
	assert.Nil(t, chat.LastMessage)
}

func TestRemoveNonTerminalKeepsLastMessage(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(1, 1, "first"))
	s.Append(1, chatMsg(2, 1, "second"))

	s.Remove(1, 1)

	chat, _ := s.Chat(1)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, int64(2), chat.LastMessage.ID)
}

func TestRemoveTerminalRecomputesPreview(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(1, 1, "first"))
	s.Append(1, chatMsg(2, 1, "second"))
	s.SetEditing(1, 2)

	s.Remove(1, 2)

	chat, _ := s.Chat(1)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "first", chat.LastMessage.Content)
	_, editing := s.Editing(1)
	assert.False(t, editing)
}

func TestPatchStatusUpserts(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(5, 1, "hi"))

	s.PatchStatus(1, 5, models.MessageStatus{MessageID: 5, UserID: 2, Status: models.StatusDelivered})
	s.PatchStatus(1, 5, models.MessageStatus{MessageID: 5, UserID: 2, Status: models.StatusRead})

	msgs := s.Messages(1)
	require.Len(t, msgs[0].Statuses, 1)
	assert.Equal(t, models.StatusRead, msgs[0].Statuses[0].Status)
}

func TestPatchStatusKeepsOtherUsers(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(5, 1, "hi"))
	s.PatchStatus(1, 5, models.MessageStatus{MessageID: 5, UserID: 2, Status: models.StatusDelivered})

	s.PatchStatus(1, 5, models.MessageStatus{MessageID: 5, UserID: 3, Status: models.StatusRead})

	msgs := s.Messages(1)
	assert.Len(t, msgs[0].Statuses, 2)
}

func TestUpdateThenDeleteScenario(t *testing.T) {
	s := seeded(42)
	s.Append(42, chatMsg(1, 42, "hi"))

	s.EditContent(42, 1, "hello", nil)
	chat, _ := s.Chat(42)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "hello", chat.LastMessage.Content)

	s.Remove(42, 1)
	assert.Empty(t, s.Messages(42))
	chat, _ = s.Chat(42)
	assert.Nil(t, chat.LastMessage)
}

func TestResetClearsEverything(t *testing.T) {
	s := seeded(1)
	s.Append(1, chatMsg(1, 1, "hi"))
	s.SetEditing(1, 1)

	s.Reset()

	assert.Empty(t, s.Chats())
	assert.Empty(t, s.Messages(1))
	_, ok := s.Editing(1)
	assert.False(t, ok)
}

func TestRemoveChatDropsState(t *testing.T) {
	s := seeded(1)
	s.AddChat(models.Chat{ID: 2, Kind: models.ChatGroup, Name: "g"})
	s.Append(2, chatMsg(1, 2, "hi"))

	s.RemoveChat(2)

	_, ok := s.Chat(2)
	assert.False(t, ok)
	assert.Empty(t, s.Messages(2))
	assert.Len(t, s.Chats(), 1)
}
