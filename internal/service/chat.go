package service

import (
	"context"
	"fmt"

	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
)

type ChatService struct {
	repo repository.ChatRepository
}

func NewChatService(repo repository.ChatRepository) *ChatService {
	return &ChatService{repo: repo}
}

// History returns a chat transcript in append order. Transcripts are only
// visible to the user who wrote them.
func (s *ChatService) History(ctx context.Context, userID, chatID string, limit int) ([]*model.ChatMessage, error) {
	messages, err := s.repo.Messages(ctx, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	for _, m := range messages {
		if err := ensureOwner("chat", m.UserID, userID); err != nil {
			return nil, err
		}
	}
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	return messages, nil
}
