package realtime

import (
	"context"
	"log"
	"time"

	"chat-client/internal/models"
	"chat-client/internal/store"
)

// DeliveryAcker signals to the backend that a message reached this client.
type DeliveryAcker interface {
	MarkMessageRead(ctx context.Context, messageID int64) error
}

// Router applies inbound messages/events to the local store, dispatched by
// kind. It performs no reordering: local state reflects transport delivery
// order.
type Router struct {
	store  *store.Store
	acker  DeliveryAcker
	selfID int64
}

// NewRouter builds a Router. selfID is the authenticated user, used to
// skip delivery acks for our own echoed messages.
func NewRouter(st *store.Store, acker DeliveryAcker, selfID int64) *Router {
	return &Router{store: st, acker: acker, selfID: selfID}
}

// Handle is the MessageHandler installed on every conversation
// subscription.
func (r *Router) Handle(msg models.ChatMessage) {
	switch msg.Kind {
	case models.KindChat:
		r.store.Append(msg.ChatID, msg)
		if msg.SenderID != r.selfID && r.acker != nil {
			go r.ackDelivery(msg.ID)
		}
	case models.KindJoin, models.KindLeave:
		r.store.Append(msg.ChatID, msg)
	case models.KindUpdate:
		// unknown ids are expected under out-of-order delivery; no-op
		r.store.EditContent(msg.ChatID, msg.ID, msg.Content, msg.EditedAt)
	case models.KindDelete:
		r.store.Remove(msg.ChatID, msg.ID)
	case models.KindStatus:
		for _, status := range msg.Statuses {
			target := status.MessageID
			if target == 0 {
				target = msg.ID
			}
			r.store.PatchStatus(msg.ChatID, target, status)
		}
	default:
		log.Printf("frame with unknown kind %q dropped", msg.Kind)
	}
}

// ackDelivery is fire-and-forget: failure is logged, never retried or
// surfaced. The server reconciles on the next fetch.
func (r *Router) ackDelivery(messageID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.acker.MarkMessageRead(ctx, messageID); err != nil {
		log.Printf("delivery ack failed for message %d: %v", messageID, err)
	}
}
