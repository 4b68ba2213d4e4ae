package chatstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"chat-stream-service/internal/media"
	"chat-stream-service/internal/models"
	"chat-stream-service/internal/notify"
	"chat-stream-service/internal/repositories"
	"chat-stream-service/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// FileUpload is one file of a send request.
type FileUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Page is one page of a chat's message stream.
type Page struct {
	Messages   []models.Message
	HasMore    bool
	NextCursor *string
	TotalCount *int
}

// Service orchestrates the message delivery pipeline: send, read-ack and list,
// with the participant gate in front of everything.
type Service struct {
	chats    repositories.ChatRepository
	users    repositories.UserRepository
	messages repositories.MessageRepository
	files    storage.FileStore
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(chats repositories.ChatRepository, users repositories.UserRepository, messages repositories.MessageRepository, files storage.FileStore, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		chats:    chats,
		users:    users,
		messages: messages,
		files:    files,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateChat creates a chat with the caller as owner. Private chats must name
// exactly one counterpart.
func (s *Service) CreateChat(ctx context.Context, chatType string, name *string, companyID int, callerID int, participantIDs []int) (models.Chat, error) {
	if chatType != models.ChatTypePrivate && chatType != models.ChatTypeGroup {
		return models.Chat{}, fmt.Errorf("%w: unknown chat type", ErrValidation)
	}

	others := lo.Uniq(lo.Without(participantIDs, callerID))
	if chatType == models.ChatTypePrivate && len(others) != 1 {
		return models.Chat{}, fmt.Errorf("%w: private chat needs exactly one counterpart", ErrValidation)
	}
	if chatType == models.ChatTypeGroup && len(others) == 0 {
		return models.Chat{}, fmt.Errorf("%w: group chat needs at least one member", ErrValidation)
	}

	active, err := s.chats.IsActiveCompanyMember(ctx, companyID, callerID)
	if err != nil {
		return models.Chat{}, err
	}
	if !active {
		return models.Chat{}, ErrForbidden
	}

	return s.chats.CreateChat(ctx, chatType, name, companyID, callerID, others)
}

// SendMessage stores the attachments, persists the message and enqueues the
// MessageSent notification. All attachment uploads happen before the message
// transaction; any storage failure aborts the whole send.
func (s *Service) SendMessage(ctx context.Context, chatID int, callerID int, content string, files []FileUpload) (models.Message, error) {
	chat, err := s.authorizeSend(ctx, chatID, callerID)
	if err != nil {
		return models.Message{}, err
	}

	if content == "" && len(files) == 0 {
		return models.Message{}, fmt.Errorf("%w: message needs content or attachments", ErrValidation)
	}

	attachments := make([]repositories.NewAttachment, 0, len(files))
	for _, file := range files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = media.Sniff(file.Data)
		}
		stored, err := s.files.Store(ctx, file.FileName, contentType, file.Data)
		if err != nil {
			return models.Message{}, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		attachments = append(attachments, repositories.NewAttachment{
			Kind:        media.Classify(contentType),
			StorageKey:  stored.Key,
			URL:         stored.URL,
			FileName:    file.FileName,
			ContentType: contentType,
			Size:        int64(len(file.Data)),
		})
	}

	msg, err := s.messages.CreateMessage(ctx, chat.ID, callerID, content, attachments)
	if err != nil {
		return models.Message{}, err
	}

	if sender, err := s.users.GetUser(ctx, callerID); err == nil {
		msg.Sender = &sender
	} else {
		s.logger.Warn("sender profile lookup", "user_id", callerID, "err", err)
	}

	s.notifier.MessageCreated(ctx, msg)
	return msg, nil
}

// MarkRead acknowledges a message. The transition is idempotent: repeated acks
// and sender self-acks leave the row untouched, and the StatusChanged
// notification goes out only when the status actually changed.
func (s *Service) MarkRead(ctx context.Context, chatID int, messageID int, callerID int) (models.Message, error) {
	if err := s.authorizeRead(ctx, chatID, callerID); err != nil {
		return models.Message{}, err
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, err
	}
	if msg.ChatID != chatID {
		return models.Message{}, ErrNotFound
	}

	msg, changed, err := s.messages.MarkRead(ctx, messageID, callerID)
	if err != nil {
		return models.Message{}, err
	}
	if changed {
		s.notifier.StatusChanged(ctx, msg)
	}
	return msg, nil
}

// ListMessages returns one page of the chat's stream, newest first, with
// optional substring search and its total match count.
func (s *Service) ListMessages(ctx context.Context, chatID int, callerID int, limit int, cursor string, search string) (Page, error) {
	if err := s.authorizeRead(ctx, chatID, callerID); err != nil {
		return Page{}, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	beforeID, err := parseCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	// one extra row decides hasMore without a count query
	msgs, err := s.messages.ListMessages(ctx, chatID, limit+1, beforeID, search)
	if err != nil {
		return Page{}, err
	}

	page := Page{HasMore: len(msgs) > limit}
	if page.HasMore {
		msgs = msgs[:limit]
	}
	page.Messages = msgs
	if page.HasMore && len(msgs) > 0 {
		next := encodeCursor(msgs[len(msgs)-1].ID)
		page.NextCursor = &next
	}

	if err := s.attachSenders(ctx, page.Messages); err != nil {
		return Page{}, err
	}

	if search != "" {
		total, err := s.messages.CountMatching(ctx, chatID, search)
		if err != nil {
			return Page{}, err
		}
		page.TotalCount = &total
	}
	return page, nil
}

func (s *Service) attachSenders(ctx context.Context, msgs []models.Message) error {
	senderIDs := lo.Uniq(lo.Map(msgs, func(m models.Message, _ int) int { return m.SenderID }))
	users, err := s.users.UsersByIDs(ctx, senderIDs)
	if err != nil {
		return err
	}
	for i := range msgs {
		if sender, ok := users[msgs[i].SenderID]; ok {
			msgs[i].Sender = &sender
		}
	}
	return nil
}

func (s *Service) authorizeRead(ctx context.Context, chatID int, callerID int) error {
	member, err := s.chats.IsParticipant(ctx, chatID, callerID)
	if err != nil {
		return err
	}
	if !member {
		return ErrForbidden
	}
	return nil
}

func (s *Service) authorizeSend(ctx context.Context, chatID int, callerID int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			// same denial as a real chat the caller cannot access
			return models.Chat{}, ErrForbidden
		}
		return models.Chat{}, err
	}

	member, err := s.chats.IsParticipant(ctx, chat.ID, callerID)
	if err != nil {
		return models.Chat{}, err
	}
	if !member {
		return models.Chat{}, ErrForbidden
	}

	// A stale participant row is not enough for group chats: the company
	// membership must still be active.
	if chat.Type == models.ChatTypeGroup {
		active, err := s.chats.IsActiveCompanyMember(ctx, chat.CompanyID, callerID)
		if err != nil {
			return models.Chat{}, err
		}
		if !active {
			return models.Chat{}, ErrForbidden
		}
	}
	return chat, nil
}
