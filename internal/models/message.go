package models

import "time"

// MessageKind distinguishes real chat content from presence and system
// events carried on the same topic.
type MessageKind string

const (
	KindChat   MessageKind = "CHAT"
	KindJoin   MessageKind = "JOIN"
	KindLeave  MessageKind = "LEAVE"
	KindUpdate MessageKind = "UPDATE"
	KindDelete MessageKind = "DELETE"
	KindStatus MessageKind = "STATUS"
)

// IsContent reports whether messages of this kind should drive the
// conversation preview in the sidebar.
func (k MessageKind) IsContent() bool { return k == KindChat }

// ChatMessage is a single message or event in a conversation. ID is
// server-assigned and zero for an optimistic send that has not been
// confirmed yet; ClientID is generated locally and echoed back by the
// server so the pending copy can be reconciled.
type ChatMessage struct {
	ID          int64           `json:"id,omitempty"`
	ClientID    string          `json:"client_id,omitempty"`
	ChatID      int64           `json:"chat_id"`
	SenderID    int64           `json:"sender_id"`
	SenderName  string          `json:"sender_name,omitempty"`
	Content     string          `json:"content"`
	Kind        MessageKind     `json:"kind"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Statuses    []MessageStatus `json:"statuses,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	EditedAt    *time.Time      `json:"edited_at,omitempty"`

	// Pending marks an optimistic local send awaiting the server echo.
	Pending bool `json:"-"`
}

// StatusValue is the per-recipient delivery state of a message.
type StatusValue string

const (
	StatusSent      StatusValue = "SENT"
	StatusDelivered StatusValue = "DELIVERED"
	StatusRead      StatusValue = "READ"
)

// MessageStatus records delivery state for one (message, user) pair.
// The server keeps transitions monotonic; the client applies what arrives.
type MessageStatus struct {
	MessageID   int64       `json:"message_id"`
	UserID      int64       `json:"user_id"`
	Status      StatusValue `json:"status"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	ReadAt      *time.Time  `json:"read_at,omitempty"`
}

// Attachment describes a file or voice note attached to a message.
type Attachment struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
	// DurationSeconds is set for voice notes.
	DurationSeconds int `json:"duration_seconds,omitempty"`
}
