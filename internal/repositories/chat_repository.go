package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-stream-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat and membership persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, chatType string, name *string, companyID int, ownerID int, participantIDs []int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	IsActiveCompanyMember(ctx context.Context, companyID int, userID int) (bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat creates a chat and its participant rows atomically. The owner is
// always included as a participant with the owner role.
func (r *ChatRepo) CreateChat(ctx context.Context, chatType string, name *string, companyID int, ownerID int, participantIDs []int) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var chat models.Chat
	if err = tx.QueryRowxContext(ctx, `INSERT INTO chats (type, name, company_id) VALUES ($1, $2, $3) RETURNING id, type, name, company_id, created_at`, chatType, name, companyID).
		StructScan(&chat); err != nil {
		return models.Chat{}, err
	}

	// dedupe members, owner always present
	memberSet := map[int]struct{}{ownerID: {}}
	for _, id := range participantIDs {
		memberSet[id] = struct{}{}
	}

	for id := range memberSet {
		role := models.RoleMember
		if id == ownerID {
			role = models.RoleOwner
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id, role) VALUES ($1, $2, $3)`, chat.ID, id, role); err != nil {
			return models.Chat{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, type, name, company_id, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// IsActiveCompanyMember checks whether the user's company membership is still
// active. Stale chat participant rows do not grant access to group chats once
// the membership is revoked.
func (r *ChatRepo) IsActiveCompanyMember(ctx context.Context, companyID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM company_members WHERE company_id=$1 AND user_id=$2 AND active = TRUE)`, companyID, userID)
	return exists, err
}
