package store

import (
	"sync"
	"time"

	"chat-client/internal/models"
)

// Store holds the session's conversation list and per-conversation message
// lists. It is the single in-memory source of truth between the realtime
// router and whatever consumes the data; nothing here is persisted.
//
// Message order is insertion order as delivered. Chronological sorting and
// day grouping are a consumer concern.
type Store struct {
	mu       sync.RWMutex
	chats    []models.Chat
	messages map[int64][]models.ChatMessage
	// editing tracks the message currently composed-for-edit per chat.
	editing map[int64]int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		messages: make(map[int64][]models.ChatMessage),
		editing:  make(map[int64]int64),
	}
}

// SetChats replaces the conversation list, preserving the given order.
func (s *Store) SetChats(chats []models.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append([]models.Chat(nil), chats...)
}

// Chats returns a copy of the conversation list.
func (s *Store) Chats() []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Chat(nil), s.chats...)
}

// Chat looks up one conversation by id.
func (s *Store) Chat(chatID int64) (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.ID == chatID {
			return c, true
		}
	}
	return models.Chat{}, false
}

// AddChat appends a conversation if it is not already present.
func (s *Store) AddChat(chat models.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ID == chat.ID {
			return
		}
	}
	s.chats = append(s.chats, chat)
}

// RemoveChat drops a conversation and all of its local state.
func (s *Store) RemoveChat(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.chats {
		if c.ID == chatID {
			s.chats = append(s.chats[:i], s.chats[i+1:]...)
			break
		}
	}
	delete(s.messages, chatID)
	delete(s.editing, chatID)
}

// SetMessages replaces a conversation's message list, typically after the
// initial REST load, and refreshes the sidebar preview.
func (s *Store) SetMessages(chatID int64, msgs []models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[chatID] = append([]models.ChatMessage(nil), msgs...)
	s.refreshLastMessage(chatID)
}

// Messages returns a copy of a conversation's message list.
func (s *Store) Messages(chatID int64) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.messages[chatID]...)
}

// Append adds a message to the tail of a conversation. An inbound message
// carrying the client id of a pending optimistic send replaces that pending
// entry in place instead of duplicating it. Content messages update the
// conversation's LastMessage pointer; presence events do not.
func (s *Store) Append(chatID int64, msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	if msg.ClientID != "" {
		list := s.messages[chatID]
		for i := range list {
			if list[i].Pending && list[i].ClientID == msg.ClientID {
				msg.Pending = false
				list[i] = msg
				replaced = true
				break
			}
		}
	}
	if !replaced {
		s.messages[chatID] = append(s.messages[chatID], msg)
	}

	if msg.Kind.IsContent() {
		if replaced {
			// a newer message may have arrived after the pending copy
			s.refreshLastMessage(chatID)
		} else {
			s.setLastMessage(chatID, &msg)
		}
	}
}

// EditContent patches a message's content by id. A missing id is a silent
// no-op: the message may have been delivered out of order or never loaded.
func (s *Store) EditContent(chatID, messageID int64, content string, editedAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID != messageID {
			continue
		}
		list[i].Content = content
		list[i].EditedAt = editedAt
		if last := s.lastMessage(chatID); last != nil && last.ID == messageID {
			updated := list[i]
			s.setLastMessage(chatID, &updated)
		}
		if s.editing[chatID] == messageID {
			delete(s.editing, chatID)
		}
		return
	}
}

// Remove deletes a message by id and recomputes the sidebar preview from
// what remains. Missing ids are a silent no-op.
func (s *Store) Remove(chatID, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID != messageID {
			continue
		}
		s.messages[chatID] = append(list[:i], list[i+1:]...)
		s.refreshLastMessage(chatID)
		if s.editing[chatID] == messageID {
			delete(s.editing, chatID)
		}
		return
	}
}

// PatchStatus upserts the per-user delivery status on a message. At most
// one record exists per (message, user) pair.
func (s *Store) PatchStatus(chatID, messageID int64, status models.MessageStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID != messageID {
			continue
		}
		for j := range list[i].Statuses {
			if list[i].Statuses[j].UserID == status.UserID {
				list[i].Statuses[j] = status
				return
			}
		}
		list[i].Statuses = append(list[i].Statuses, status)
		return
	}
}

// SetEditing marks a message as the one being composed-for-edit.
func (s *Store) SetEditing(chatID, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing[chatID] = messageID
}

// Editing returns the message id currently composed-for-edit, if any.
func (s *Store) Editing(chatID int64) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.editing[chatID]
	return id, ok
}

// ClearEditing drops the composed-for-edit marker.
func (s *Store) ClearEditing(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.editing, chatID)
}

// Reset clears everything. Called on logout so no state leaks across
// sessions.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = nil
	s.messages = make(map[int64][]models.ChatMessage)
	s.editing = make(map[int64]int64)
}

// callers must hold s.mu
func (s *Store) lastMessage(chatID int64) *models.ChatMessage {
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			return s.chats[i].LastMessage
		}
	}
	return nil
}

// callers must hold s.mu
func (s *Store) setLastMessage(chatID int64, msg *models.ChatMessage) {
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].LastMessage = msg
			return
		}
	}
}

// refreshLastMessage recomputes the preview as the newest remaining content
// message. Callers must hold s.mu.
func (s *Store) refreshLastMessage(chatID int64) {
	list := s.messages[chatID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Kind.IsContent() {
			msg := list[i]
			s.setLastMessage(chatID, &msg)
			return
		}
	}
	s.setLastMessage(chatID, nil)
}
