package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"github.com/gritto/gritto/internal/model"
)

// ChatRepository is an append-only transcript store.
type ChatRepository interface {
	Append(ctx context.Context, msg *model.ChatMessage) error
	Messages(ctx context.Context, chatID string, limit int) ([]*model.ChatMessage, error)
}

type chatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Append(ctx context.Context, msg *model.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.ID == "" {
		// ulid.Make is monotonic within a process, so id order is append order.
		msg.ID = ulid.Make().String()
	}

	query := `INSERT INTO chat_messages (id, chat_id, user_id, sender, message, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.ChatID, msg.UserID, msg.Sender, msg.Message, msg.CreatedAt)
	return err
}

func (r *chatRepository) Messages(ctx context.Context, chatID string, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT * FROM chat_messages WHERE chat_id = $1 ORDER BY id ASC LIMIT $2`

	err := r.db.SelectContext(ctx, &messages, query, chatID, limit)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
