package rest

import (
	"context"
	"fmt"
	"net/http"

	"chat-client/internal/models"
)

// ChatService is the slice of the REST surface the session and router
// depend on; declared here so consumers can mock it.
type ChatService interface {
	ListChats(ctx context.Context) ([]models.Chat, error)
	ChatMessages(ctx context.Context, chatID int64) ([]models.ChatMessage, error)
	MarkMessageRead(ctx context.Context, messageID int64) error
}

var _ ChatService = (*Client)(nil)

// ListChats loads every conversation visible to the current user.
func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	err := c.do(ctx, http.MethodGet, "/chats/all", "/chats/all", nil, &chats)
	return chats, err
}

// ChatMessages loads the full message history of one conversation.
func (c *Client) ChatMessages(ctx context.Context, chatID int64) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	path := fmt.Sprintf("/chats/%d/messages", chatID)
	err := c.do(ctx, http.MethodGet, "/chats/{id}/messages", path, nil, &msgs)
	return msgs, err
}

// StartChatWith creates (or returns the existing) one-to-one chat with a
// user.
func (c *Client) StartChatWith(ctx context.Context, userID int64) (models.Chat, error) {
	var chat models.Chat
	path := fmt.Sprintf("/chats/with/%d", userID)
	err := c.do(ctx, http.MethodPost, "/chats/with/{userId}", path, nil, &chat)
	return chat, err
}

// ChatWith fetches the existing one-to-one chat with a user.
func (c *Client) ChatWith(ctx context.Context, userID int64) (models.Chat, error) {
	var chat models.Chat
	path := fmt.Sprintf("/chats/with/%d", userID)
	err := c.do(ctx, http.MethodGet, "/chats/with/{userId}", path, nil, &chat)
	return chat, err
}

// DeleteChat removes a conversation for the current user.
func (c *Client) DeleteChat(ctx context.Context, chatID int64) error {
	path := fmt.Sprintf("/chats/%d", chatID)
	return c.do(ctx, http.MethodDelete, "/chats/{id}", path, nil, nil)
}

// MarkMessageRead acknowledges delivery/read of a message. The router calls
// this fire-and-forget for inbound messages from other senders.
func (c *Client) MarkMessageRead(ctx context.Context, messageID int64) error {
	path := fmt.Sprintf("/messages/%d/read", messageID)
	return c.do(ctx, http.MethodPost, "/messages/{id}/read", path, nil, nil)
}

// EditMessage updates a message's content.
func (c *Client) EditMessage(ctx context.Context, messageID int64, content string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	path := fmt.Sprintf("/messages/%d", messageID)
	body := map[string]string{"content": content}
	err := c.do(ctx, http.MethodPut, "/messages/{id}", path, body, &msg)
	return msg, err
}

// DeleteMessage removes a message for everyone.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	path := fmt.Sprintf("/messages/%d", messageID)
	return c.do(ctx, http.MethodDelete, "/messages/{id}", path, nil, nil)
}

// ListUsers returns every user visible to the current account.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/users/all", "/users/all", nil, &users)
	return users, err
}

// UpdateProfile updates the current user's profile.
func (c *Client) UpdateProfile(ctx context.Context, profile models.User) (models.User, error) {
	var updated models.User
	err := c.do(ctx, http.MethodPut, "/users/profile", "/users/profile", profile, &updated)
	return updated, err
}

// CreateGroup creates a group conversation with the given members.
func (c *Client) CreateGroup(ctx context.Context, name string, memberIDs []int64) (models.Chat, error) {
	var chat models.Chat
	body := map[string]any{"name": name, "member_ids": memberIDs}
	err := c.do(ctx, http.MethodPost, "/groups", "/groups", body, &chat)
	return chat, err
}

// UpdateGroup renames a group or changes its avatar.
func (c *Client) UpdateGroup(ctx context.Context, groupID int64, name, avatarURL string) (models.Chat, error) {
	var chat models.Chat
	path := fmt.Sprintf("/groups/%d", groupID)
	body := map[string]string{"name": name, "avatar_url": avatarURL}
	err := c.do(ctx, http.MethodPut, "/groups/{id}", path, body, &chat)
	return chat, err
}

// AddGroupMember adds a user to a group.
func (c *Client) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	path := fmt.Sprintf("/groups/%d/members/%d", groupID, userID)
	return c.do(ctx, http.MethodPost, "/groups/{id}/members/{uid}", path, nil, nil)
}

// RemoveGroupMember removes a user from a group.
func (c *Client) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	path := fmt.Sprintf("/groups/%d/members/%d", groupID, userID)
	return c.do(ctx, http.MethodDelete, "/groups/{id}/members/{uid}", path, nil, nil)
}
