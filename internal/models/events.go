package models

import "time"

// Event names carried on per-chat channels.
const (
	EventMessageSent          = "MessageSent"
	EventMessageStatusUpdated = "MessageStatusUpdated"
)

// EventEnvelope is the outer wire shape broadcast to subscribers.
type EventEnvelope struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	Message any `json:"message"`
}

// SenderProjection is the sender subset sent across the wire.
type SenderProjection struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// MediaProjection is the wire shape of one attachment.
type MediaProjection struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Link     string `json:"link"`
	NameFile string `json:"name_file"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// MessageSentEvent is the full message projection published on creation.
type MessageSentEvent struct {
	ID          int               `json:"id"`
	Content     string            `json:"content"`
	Sender      SenderProjection  `json:"sender"`
	SentAt      string            `json:"sent_at"`
	ChatID      int               `json:"chat_id"`
	Status      MessageStatus     `json:"status"`
	DeliveredAt *string           `json:"delivered_at"`
	ReadAt      *string           `json:"read_at"`
	Media       []MediaProjection `json:"media"`
}

// MessageStatusUpdatedEvent is the reduced projection published on a status
// change. Timestamps carry the row's current values.
type MessageStatusUpdatedEvent struct {
	ID          int           `json:"id"`
	ChatID      int           `json:"chat_id"`
	SenderID    int           `json:"sender_id"`
	Content     string        `json:"content"`
	SentAt      string        `json:"sent_at"`
	Status      MessageStatus `json:"status"`
	DeliveredAt *string       `json:"delivered_at"`
	ReadAt      *string       `json:"read_at"`
}

// NewMessageSentEvent projects a stored message onto the creation wire shape.
func NewMessageSentEvent(msg Message) MessageSentEvent {
	event := MessageSentEvent{
		ID:          msg.ID,
		Content:     msg.Content,
		SentAt:      formatUTC(msg.SentAt),
		ChatID:      msg.ChatID,
		Status:      msg.Status,
		DeliveredAt: formatUTCPtr(msg.DeliveredAt),
		ReadAt:      formatUTCPtr(msg.ReadAt),
		Media:       make([]MediaProjection, 0, len(msg.Attachments)),
	}
	if msg.Sender != nil {
		event.Sender = SenderProjection{ID: msg.Sender.ID, Name: msg.Sender.Name, Avatar: msg.Sender.Avatar}
	} else {
		event.Sender = SenderProjection{ID: msg.SenderID}
	}
	for _, att := range msg.Attachments {
		event.Media = append(event.Media, MediaProjection{
			ID:       att.ID,
			Type:     att.Kind,
			Link:     att.URL,
			NameFile: att.FileName,
			MimeType: att.ContentType,
			Size:     att.Size,
		})
	}
	return event
}

// NewMessageStatusUpdatedEvent projects a stored message onto the
// status-change wire shape.
func NewMessageStatusUpdatedEvent(msg Message) MessageStatusUpdatedEvent {
	return MessageStatusUpdatedEvent{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		SentAt:      formatUTC(msg.SentAt),
		Status:      msg.Status,
		DeliveredAt: formatUTCPtr(msg.DeliveredAt),
		ReadAt:      formatUTCPtr(msg.ReadAt),
	}
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatUTCPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatUTC(*t)
	return &s
}
