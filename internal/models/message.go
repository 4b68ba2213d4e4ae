package models

import "time"

// Message represents a chat message. Chat, sender and sent_at are immutable
// after creation; only status and its timestamps change afterwards.
type Message struct {
	ID          int           `db:"id" json:"id"`
	ChatID      int           `db:"chat_id" json:"chat_id"`
	SenderID    int           `db:"sender_id" json:"sender_id"`
	Content     string        `db:"content" json:"content"`
	Status      MessageStatus `db:"status" json:"status"`
	SentAt      time.Time     `db:"sent_at" json:"sent_at"`
	DeliveredAt *time.Time    `db:"delivered_at" json:"delivered_at"`
	ReadAt      *time.Time    `db:"read_at" json:"read_at"`

	Sender      *User        `db:"-" json:"sender,omitempty"`
	Attachments []Attachment `db:"-" json:"attachments,omitempty"`
}

// Attachment is a file attached to a message, created atomically with it.
// Kind is derived from the content type, never user-supplied.
type Attachment struct {
	ID          int    `db:"id" json:"id"`
	MessageID   int    `db:"message_id" json:"message_id"`
	Kind        string `db:"kind" json:"kind"`
	StorageKey  string `db:"storage_key" json:"-"`
	URL         string `db:"url" json:"url"`
	FileName    string `db:"file_name" json:"file_name"`
	ContentType string `db:"content_type" json:"content_type"`
	Size        int64  `db:"size_bytes" json:"size"`
}
