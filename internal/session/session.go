package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chat-client/internal/models"
	"chat-client/internal/realtime"
	"chat-client/internal/store"
	"chat-client/internal/telemetry"
)

// API is the slice of the REST surface the session drives.
type API interface {
	ListChats(ctx context.Context) ([]models.Chat, error)
	ChatMessages(ctx context.Context, chatID int64) ([]models.ChatMessage, error)
	MarkMessageRead(ctx context.Context, messageID int64) error
	StartChatWith(ctx context.Context, userID int64) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID int64) error
	EditMessage(ctx context.Context, messageID int64, content string) (models.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID int64) error
}

// Realtime is the realtime client surface the session drives.
type Realtime interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	OnConnect(fn func())
	Subscribe(chatID int64, handler realtime.MessageHandler)
	Unsubscribe(chatID int64)
	SendMessage(cmd realtime.SendCommand) error
	Join(chatID int64, user models.User) error
	Leave(chatID int64, user models.User) error
}

// Session ties the store, realtime client and REST client together for one
// authenticated user. It is constructed at login and closed at logout;
// nothing survives it, so a later session starts from a clean slate.
type Session struct {
	user   models.User
	api    API
	rt     Realtime
	store  *store.Store
	router *realtime.Router
	audit  *telemetry.AuditEmitter
	connID string
}

// New wires a session together. acker delivery acks go through api.
func New(user models.User, api API, rt Realtime, st *store.Store, audit *telemetry.AuditEmitter) *Session {
	return &Session{
		user:   user,
		api:    api,
		rt:     rt,
		store:  st,
		router: realtime.NewRouter(st, api, user.ID),
		audit:  audit,
		connID: uuid.NewString(),
	}
}

// Start loads the conversation list, arms resubscription for every
// (re)connect, and opens the realtime channel. A failed initial connect is
// not fatal: the retry loop is armed and subscriptions are buffered.
func (s *Session) Start(ctx context.Context) error {
	chats, err := s.api.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	s.store.SetChats(chats)

	s.rt.OnConnect(s.resubscribeAll)
	s.emit(ctx, "INFO", "session started")

	if err := s.rt.Connect(ctx); err != nil {
		log.Printf("initial connect failed, retrying in background: %v", err)
	}
	return nil
}

// resubscribeAll re-establishes every conversation topic. Fired on every
// successful (re)connect, so a reconnect behaves like a first connect.
func (s *Session) resubscribeAll() {
	for _, chat := range s.store.Chats() {
		s.rt.Subscribe(chat.ID, s.router.Handle)
	}
}

// User returns the authenticated user.
func (s *Session) User() models.User { return s.user }

// Store exposes the session store for read-side consumers.
func (s *Session) Store() *store.Store { return s.store }

// Connected reports the realtime channel state.
func (s *Session) Connected() bool { return s.rt.IsConnected() }

// OpenChat loads a conversation's history, subscribes its topic and
// announces presence.
func (s *Session) OpenChat(ctx context.Context, chatID int64) ([]models.ChatMessage, error) {
	msgs, err := s.api.ChatMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load messages for chat %d: %w", chatID, err)
	}
	s.store.SetMessages(chatID, msgs)
	s.rt.Subscribe(chatID, s.router.Handle)
	_ = s.rt.Join(chatID, s.user)
	return msgs, nil
}

// CloseChat announces departure. The topic stays subscribed so the sidebar
// keeps updating in the background.
func (s *Session) CloseChat(chatID int64) {
	_ = s.rt.Leave(chatID, s.user)
}

// Send appends an optimistic pending message and posts the command. When
// the socket is down the command is dropped with a logged diagnostic; the
// pending copy stays visible until reconciled or the session ends.
func (s *Session) Send(chatID int64, content string, attachments []models.Attachment) models.ChatMessage {
	msg := models.ChatMessage{
		ClientID:    uuid.NewString(),
		ChatID:      chatID,
		SenderID:    s.user.ID,
		SenderName:  s.user.Username,
		Content:     content,
		Kind:        models.KindChat,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
		Pending:     true,
	}
	s.store.Append(chatID, msg)

	cmd := realtime.SendCommand{
		ChatID:      chatID,
		ClientID:    msg.ClientID,
		SenderID:    s.user.ID,
		SenderName:  s.user.Username,
		Content:     content,
		Attachments: attachments,
	}
	if err := s.rt.SendMessage(cmd); err != nil {
		log.Printf("send failed for chat %d: %v", chatID, err)
	}
	return msg
}

// EditMessage persists an edit, then mirrors it locally.
func (s *Session) EditMessage(ctx context.Context, chatID, messageID int64, content string) error {
	updated, err := s.api.EditMessage(ctx, messageID, content)
	if err != nil {
		return err
	}
	s.store.EditContent(chatID, messageID, updated.Content, updated.EditedAt)
	return nil
}

// DeleteMessage persists a deletion, then mirrors it locally.
func (s *Session) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	if err := s.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	s.store.Remove(chatID, messageID)
	return nil
}

// MarkRead acknowledges a message the user has actually seen.
func (s *Session) MarkRead(ctx context.Context, messageID int64) error {
	return s.api.MarkMessageRead(ctx, messageID)
}

// StartChatWith creates (or resumes) a one-to-one chat and subscribes it.
func (s *Session) StartChatWith(ctx context.Context, userID int64) (models.Chat, error) {
	chat, err := s.api.StartChatWith(ctx, userID)
	if err != nil {
		return models.Chat{}, err
	}
	s.store.AddChat(chat)
	s.rt.Subscribe(chat.ID, s.router.Handle)
	return chat, nil
}

// RemoveChat deletes a conversation server-side and locally, and tears
// down its subscription.
func (s *Session) RemoveChat(ctx context.Context, chatID int64) error {
	if err := s.api.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	s.rt.Unsubscribe(chatID)
	s.store.RemoveChat(chatID)
	return nil
}

// Close tears the session down: realtime channel, then local state. Safe
// to call more than once.
func (s *Session) Close() {
	s.rt.Disconnect()
	s.store.Reset()
	s.emit(context.Background(), "INFO", "session closed")
}

func (s *Session) emit(ctx context.Context, level, text string) {
	if s.audit == nil {
		return
	}
	uid := s.user.ID
	s.audit.Emit(ctx, level, text, s.connID, &uid)
}
