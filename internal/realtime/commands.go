package realtime

import (
	"encoding/json"
	"log"

	"chat-client/internal/models"
	"chat-client/internal/stomp"
)

// Command destinations on the broker.
const (
	destSend  = "/app/chat.send"
	destJoin  = "/app/chat.join"
	destLeave = "/app/chat.leave"
)

// SendCommand is the wire payload for posting a message.
type SendCommand struct {
	ChatID      int64               `json:"chat_id"`
	ClientID    string              `json:"client_id,omitempty"`
	SenderID    int64               `json:"sender_id"`
	SenderName  string              `json:"sender_name,omitempty"`
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

type presenceCommand struct {
	ChatID   int64              `json:"chat_id"`
	UserID   int64              `json:"user_id"`
	Username string             `json:"username,omitempty"`
	Kind     models.MessageKind `json:"kind"`
}

// SendMessage posts a chat message. There is no payload queuing across
// disconnects: when the socket is down this fails immediately with
// ErrNotConnected.
func (c *Client) SendMessage(cmd SendCommand) error {
	return c.sendJSON(destSend, cmd)
}

// Join announces presence in a conversation. Best-effort, unacknowledged.
func (c *Client) Join(chatID int64, user models.User) error {
	return c.sendJSON(destJoin, presenceCommand{
		ChatID:   chatID,
		UserID:   user.ID,
		Username: user.Username,
		Kind:     models.KindJoin,
	})
}

// Leave announces departure from a conversation. Best-effort,
// unacknowledged.
func (c *Client) Leave(chatID int64, user models.User) error {
	return c.sendJSON(destLeave, presenceCommand{
		ChatID:   chatID,
		UserID:   user.ID,
		Username: user.Username,
		Kind:     models.KindLeave,
	})
}

func (c *Client) sendJSON(destination string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		log.Printf("send dropped, websocket not connected destination=%s", destination)
		return ErrNotConnected
	}

	frame := stomp.NewFrame(stomp.CmdSend)
	frame.Headers[stomp.HdrDestination] = destination
	frame.Headers[stomp.HdrContentType] = "application/json"
	frame.Body = body
	return c.conn.WriteFrame(frame)
}
