package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-stream-service/internal/mocks"
	"chat-stream-service/internal/models"
	"chat-stream-service/internal/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMessageCreatedEnvelope(t *testing.T) {
	outbox := new(mocks.OutboxRepositoryMock)
	var stored []byte
	outbox.On("Enqueue", mock.Anything, 5, models.EventMessageSent, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(3).([]byte) }).
		Return(nil)

	notifier := notify.NewOutboxNotifier(outbox, testLogger())
	sender := models.User{ID: 10, Name: "Ann", Avatar: "a.png"}
	notifier.MessageCreated(context.Background(), models.Message{
		ID:       77,
		ChatID:   5,
		SenderID: 10,
		Content:  "hi",
		Status:   models.StatusSent,
		SentAt:   time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		Sender:   &sender,
		Attachments: []models.Attachment{
			{ID: 1, Kind: "image", URL: "https://cdn/a.jpg", FileName: "a.jpg", ContentType: "image/jpeg", Size: 4},
		},
	})

	outbox.AssertExpectations(t)
	var envelope struct {
		Event string `json:"event"`
		Data  struct {
			Message models.MessageSentEvent `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stored, &envelope))
	assert.Equal(t, "MessageSent", envelope.Event)
	assert.Equal(t, 77, envelope.Data.Message.ID)
	assert.Equal(t, "2026-02-03T12:00:00Z", envelope.Data.Message.SentAt)
	assert.Equal(t, "Ann", envelope.Data.Message.Sender.Name)
	require.Len(t, envelope.Data.Message.Media, 1)
	assert.Equal(t, "image", envelope.Data.Message.Media[0].Type)
	assert.Equal(t, "a.jpg", envelope.Data.Message.Media[0].NameFile)
}

func TestStatusChangedEnvelope(t *testing.T) {
	outbox := new(mocks.OutboxRepositoryMock)
	var stored []byte
	outbox.On("Enqueue", mock.Anything, 5, models.EventMessageStatusUpdated, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(3).([]byte) }).
		Return(nil)

	notifier := notify.NewOutboxNotifier(outbox, testLogger())
	readAt := time.Date(2026, 2, 3, 12, 5, 0, 0, time.UTC)
	notifier.StatusChanged(context.Background(), models.Message{
		ID:       77,
		ChatID:   5,
		SenderID: 10,
		Content:  "hi",
		Status:   models.StatusRead,
		SentAt:   time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		ReadAt:   &readAt,
	})

	outbox.AssertExpectations(t)
	var envelope struct {
		Event string `json:"event"`
		Data  struct {
			Message models.MessageStatusUpdatedEvent `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stored, &envelope))
	assert.Equal(t, "MessageStatusUpdated", envelope.Event)
	assert.Equal(t, models.StatusRead, envelope.Data.Message.Status)
	// sent_at stays the original send time, not the ack time
	assert.Equal(t, "2026-02-03T12:00:00Z", envelope.Data.Message.SentAt)
	require.NotNil(t, envelope.Data.Message.ReadAt)
	assert.Equal(t, "2026-02-03T12:05:00Z", *envelope.Data.Message.ReadAt)
}

func TestEnqueueFailureSwallowed(t *testing.T) {
	outbox := new(mocks.OutboxRepositoryMock)
	outbox.On("Enqueue", mock.Anything, 5, models.EventMessageSent, mock.Anything).
		Return(assert.AnError)

	notifier := notify.NewOutboxNotifier(outbox, testLogger())
	notifier.MessageCreated(context.Background(), models.Message{ID: 77, ChatID: 5, SenderID: 10})

	outbox.AssertExpectations(t)
}
