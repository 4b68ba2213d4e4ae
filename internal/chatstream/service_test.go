package chatstream_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-stream-service/internal/chatstream"
	"chat-stream-service/internal/mocks"
	"chat-stream-service/internal/models"
	"chat-stream-service/internal/repositories"
	"chat-stream-service/internal/storage"
)

type serviceFixture struct {
	chats    *mocks.ChatRepositoryMock
	users    *mocks.UserRepositoryMock
	messages *mocks.MessageRepositoryMock
	files    *mocks.FileStoreMock
	notifier *mocks.NotifierMock
	service  *chatstream.Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		chats:    new(mocks.ChatRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		files:    new(mocks.FileStoreMock),
		notifier: new(mocks.NotifierMock),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = chatstream.NewService(f.chats, f.users, f.messages, f.files, f.notifier, logger)
	return f
}

func TestSendMessageWithAttachment(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	chat := models.Chat{ID: 5, Type: models.ChatTypePrivate, CompanyID: 1}
	f.chats.On("GetChat", ctx, 5).Return(chat, nil)
	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)

	data := []byte{0x89, 0x50, 0x4e, 0x47}
	f.files.On("Store", ctx, "photo.jpg", "image/jpeg", data).
		Return(storage.StoredFile{Key: "ab12.jpg", URL: "https://cdn/ab12.jpg"}, nil)

	wantAttachments := []repositories.NewAttachment{{
		Kind:        "image",
		StorageKey:  "ab12.jpg",
		URL:         "https://cdn/ab12.jpg",
		FileName:    "photo.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
	}}
	stored := models.Message{
		ID:       77,
		ChatID:   5,
		SenderID: 10,
		Content:  "hi",
		Status:   models.StatusSent,
		SentAt:   time.Now(),
		Attachments: []models.Attachment{
			{ID: 1, MessageID: 77, Kind: "image", URL: "https://cdn/ab12.jpg"},
		},
	}
	f.messages.On("CreateMessage", ctx, 5, 10, "hi", wantAttachments).Return(stored, nil)
	f.users.On("GetUser", ctx, 10).Return(models.User{ID: 10, Name: "Ann"}, nil)
	f.notifier.On("MessageCreated", ctx, mock.AnythingOfType("models.Message")).Once()

	msg, err := f.service.SendMessage(ctx, 5, 10, "hi", []chatstream.FileUpload{
		{FileName: "photo.jpg", ContentType: "image/jpeg", Data: data},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)
	assert.Equal(t, "image", msg.Attachments[0].Kind)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Ann", msg.Sender.Name)
	f.notifier.AssertExpectations(t)
}

func TestSendMessageEmptyRejected(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("GetChat", ctx, 5).Return(models.Chat{ID: 5, Type: models.ChatTypePrivate}, nil)
	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)

	_, err := f.service.SendMessage(ctx, 5, 10, "", nil)
	assert.True(t, errors.Is(err, chatstream.ErrValidation))
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageOutsiderForbidden(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("GetChat", ctx, 5).Return(models.Chat{ID: 5, Type: models.ChatTypePrivate}, nil)
	f.chats.On("IsParticipant", ctx, 5, 99).Return(false, nil)

	_, err := f.service.SendMessage(ctx, 5, 99, "hi", nil)
	assert.True(t, errors.Is(err, chatstream.ErrForbidden))
}

func TestSendMessageUnknownChatForbidden(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("GetChat", ctx, 404).Return(models.Chat{}, repositories.ErrChatNotFound)

	_, err := f.service.SendMessage(ctx, 404, 10, "hi", nil)
	assert.True(t, errors.Is(err, chatstream.ErrForbidden))
}

func TestSendMessageInactiveGroupMemberForbidden(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	chat := models.Chat{ID: 8, Type: models.ChatTypeGroup, CompanyID: 3}
	f.chats.On("GetChat", ctx, 8).Return(chat, nil)
	f.chats.On("IsParticipant", ctx, 8, 10).Return(true, nil)
	f.chats.On("IsActiveCompanyMember", ctx, 3, 10).Return(false, nil)

	_, err := f.service.SendMessage(ctx, 8, 10, "hi", nil)
	assert.True(t, errors.Is(err, chatstream.ErrForbidden))
}

func TestSendMessageStorageFailureAborts(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("GetChat", ctx, 5).Return(models.Chat{ID: 5, Type: models.ChatTypePrivate}, nil)
	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)
	f.files.On("Store", ctx, "a.pdf", "application/pdf", mock.Anything).
		Return(storage.StoredFile{}, errors.New("bucket unreachable"))

	_, err := f.service.SendMessage(ctx, 5, 10, "doc", []chatstream.FileUpload{
		{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
	})
	assert.True(t, errors.Is(err, chatstream.ErrStorage))
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "MessageCreated", mock.Anything, mock.Anything)
}

func TestMarkReadNotifiesOnce(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	msg := models.Message{ID: 77, ChatID: 5, SenderID: 10, Status: models.StatusSent}
	read := msg
	read.Status = models.StatusRead
	now := time.Now()
	read.ReadAt = &now

	f.chats.On("IsParticipant", ctx, 5, 20).Return(true, nil)
	f.messages.On("GetMessage", ctx, 77).Return(msg, nil)
	f.messages.On("MarkRead", ctx, 77, 20).Return(read, true, nil).Once()
	f.messages.On("MarkRead", ctx, 77, 20).Return(read, false, nil)
	f.notifier.On("StatusChanged", ctx, read).Once()

	got, err := f.service.MarkRead(ctx, 5, 77, 20)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, got.Status)

	// second ack is a no-op and must not notify again
	got, err = f.service.MarkRead(ctx, 5, 77, 20)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, got.Status)

	f.notifier.AssertNumberOfCalls(t, "StatusChanged", 1)
}

func TestMarkReadSenderSelfAckNoop(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	msg := models.Message{ID: 77, ChatID: 5, SenderID: 10, Status: models.StatusSent}
	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)
	f.messages.On("GetMessage", ctx, 77).Return(msg, nil)
	f.messages.On("MarkRead", ctx, 77, 10).Return(msg, false, nil)

	got, err := f.service.MarkRead(ctx, 5, 77, 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, got.Status)
	f.notifier.AssertNotCalled(t, "StatusChanged", mock.Anything, mock.Anything)
}

func TestMarkReadWrongChatNotFound(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("IsParticipant", ctx, 6, 20).Return(true, nil)
	f.messages.On("GetMessage", ctx, 77).Return(models.Message{ID: 77, ChatID: 5}, nil)

	_, err := f.service.MarkRead(ctx, 6, 77, 20)
	assert.True(t, errors.Is(err, chatstream.ErrNotFound))
}

func TestMarkReadMissingMessageNotFound(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("IsParticipant", ctx, 5, 20).Return(true, nil)
	f.messages.On("GetMessage", ctx, 404).Return(models.Message{}, repositories.ErrMessageNotFound)

	_, err := f.service.MarkRead(ctx, 5, 404, 20)
	assert.True(t, errors.Is(err, chatstream.ErrNotFound))
}

func TestListMessagesPagination(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	msgs := []models.Message{
		{ID: 30, ChatID: 5, SenderID: 10},
		{ID: 29, ChatID: 5, SenderID: 20},
		{ID: 28, ChatID: 5, SenderID: 10},
	}
	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)
	// limit 2 probes with 3 and gets a full extra row back
	f.messages.On("ListMessages", ctx, 5, 3, 0, "").Return(msgs, nil)
	f.users.On("UsersByIDs", ctx, []int{10, 20}).Return(map[int]models.User{
		10: {ID: 10, Name: "Ann"},
		20: {ID: 20, Name: "Bob"},
	}, nil)

	page, err := f.service.ListMessages(ctx, 5, 10, 2, "", "")
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "id:29", *page.NextCursor)
	assert.Nil(t, page.TotalCount)
	require.NotNil(t, page.Messages[0].Sender)
	assert.Equal(t, "Ann", page.Messages[0].Sender.Name)
}

func TestListMessagesLastPage(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)
	f.messages.On("ListMessages", ctx, 5, 21, 29, "").Return([]models.Message{
		{ID: 28, ChatID: 5, SenderID: 10},
	}, nil)
	f.users.On("UsersByIDs", ctx, []int{10}).Return(map[int]models.User{10: {ID: 10}}, nil)

	page, err := f.service.ListMessages(ctx, 5, 10, 0, "id:29", "")
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestListMessagesSearchCountsAllMatches(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)
	f.messages.On("ListMessages", ctx, 5, 21, 0, "invoice").Return([]models.Message{
		{ID: 30, ChatID: 5, SenderID: 10, Content: "invoice"},
		{ID: 12, ChatID: 5, SenderID: 10, Content: "the invoice is late"},
	}, nil)
	f.users.On("UsersByIDs", ctx, []int{10}).Return(map[int]models.User{10: {ID: 10}}, nil)
	f.messages.On("CountMatching", ctx, 5, "invoice").Return(2, nil)

	page, err := f.service.ListMessages(ctx, 5, 10, 0, "", "invoice")
	require.NoError(t, err)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 2, *page.TotalCount)
}

func TestListMessagesBadCursor(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("IsParticipant", ctx, 5, 10).Return(true, nil)

	_, err := f.service.ListMessages(ctx, 5, 10, 0, "page:2", "")
	assert.True(t, errors.Is(err, chatstream.ErrValidation))
}

func TestCreateChatPrivateNeedsOneCounterpart(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.service.CreateChat(ctx, models.ChatTypePrivate, nil, 1, 10, []int{20, 30})
	assert.True(t, errors.Is(err, chatstream.ErrValidation))
}

func TestCreateChatInactiveMemberForbidden(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.chats.On("IsActiveCompanyMember", ctx, 1, 10).Return(false, nil)

	_, err := f.service.CreateChat(ctx, models.ChatTypePrivate, nil, 1, 10, []int{20})
	assert.True(t, errors.Is(err, chatstream.ErrForbidden))
}

func TestCreateChatDeduplicatesParticipants(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	name := "ops"
	f.chats.On("IsActiveCompanyMember", ctx, 1, 10).Return(true, nil)
	f.chats.On("CreateChat", ctx, models.ChatTypeGroup, &name, 1, 10, []int{20, 30}).
		Return(models.Chat{ID: 9, Type: models.ChatTypeGroup, Name: &name, CompanyID: 1}, nil)

	chat, err := f.service.CreateChat(ctx, models.ChatTypeGroup, &name, 1, 10, []int{20, 10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, 9, chat.ID)
	f.chats.AssertExpectations(t)
}
