package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-stream-service/internal/chatstream"
	"chat-stream-service/internal/models"
	"chat-stream-service/internal/notify"
	"chat-stream-service/internal/repositories"
	"chat-stream-service/internal/storage"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, chatType string, name *string, companyID int, ownerID int, participantIDs []int) (models.Chat, error) {
	args := m.Called(ctx, chatType, name, companyID, ownerID, participantIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) IsActiveCompanyMember(ctx context.Context, companyID int, userID int) (bool, error) {
	args := m.Called(ctx, companyID, userID)
	return args.Bool(0), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UsersByIDs(ctx context.Context, ids []int) (map[int]models.User, error) {
	args := m.Called(ctx, ids)
	var users map[int]models.User
	if val := args.Get(0); val != nil {
		users = val.(map[int]models.User)
	}
	return users, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, content string, attachments []repositories.NewAttachment) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content, attachments)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID int, callerID int) (models.Message, bool, error) {
	args := m.Called(ctx, messageID, callerID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int, limit int, beforeID int, search string) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, beforeID, search)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountMatching(ctx context.Context, chatID int, search string) (int, error) {
	args := m.Called(ctx, chatID, search)
	return args.Int(0), args.Error(1)
}

type OutboxRepositoryMock struct {
	mock.Mock
}

func (m *OutboxRepositoryMock) Enqueue(ctx context.Context, chatID int, event string, payload []byte) error {
	args := m.Called(ctx, chatID, event, payload)
	return args.Error(0)
}

func (m *OutboxRepositoryMock) FetchPending(ctx context.Context, limit int) ([]repositories.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	var events []repositories.OutboxEvent
	if val := args.Get(0); val != nil {
		events = val.([]repositories.OutboxEvent)
	}
	return events, args.Error(1)
}

func (m *OutboxRepositoryMock) MarkDispatched(ctx context.Context, ids []int) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type FileStoreMock struct {
	mock.Mock
}

func (m *FileStoreMock) Store(ctx context.Context, fileName string, contentType string, data []byte) (storage.StoredFile, error) {
	args := m.Called(ctx, fileName, contentType, data)
	var stored storage.StoredFile
	if val := args.Get(0); val != nil {
		stored = val.(storage.StoredFile)
	}
	return stored, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) MessageCreated(ctx context.Context, msg models.Message) {
	m.Called(ctx, msg)
}

func (m *NotifierMock) StatusChanged(ctx context.Context, msg models.Message) {
	m.Called(ctx, msg)
}

type StreamServiceMock struct {
	mock.Mock
}

func (m *StreamServiceMock) CreateChat(ctx context.Context, chatType string, name *string, companyID int, callerID int, participantIDs []int) (models.Chat, error) {
	args := m.Called(ctx, chatType, name, companyID, callerID, participantIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *StreamServiceMock) SendMessage(ctx context.Context, chatID int, callerID int, content string, files []chatstream.FileUpload) (models.Message, error) {
	args := m.Called(ctx, chatID, callerID, content, files)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *StreamServiceMock) MarkRead(ctx context.Context, chatID int, messageID int, callerID int) (models.Message, error) {
	args := m.Called(ctx, chatID, messageID, callerID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *StreamServiceMock) ListMessages(ctx context.Context, chatID int, callerID int, limit int, cursor string, search string) (chatstream.Page, error) {
	args := m.Called(ctx, chatID, callerID, limit, cursor, search)
	var page chatstream.Page
	if val := args.Get(0); val != nil {
		page = val.(chatstream.Page)
	}
	return page, args.Error(1)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.OutboxRepository = (*OutboxRepositoryMock)(nil)
var _ storage.FileStore = (*FileStoreMock)(nil)
var _ notify.Notifier = (*NotifierMock)(nil)
