package model

import (
	"time"
)

const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	ChatID    string    `db:"chat_id" json:"chatId"`
	UserID    string    `db:"user_id" json:"userId"`
	Sender    string    `db:"sender" json:"sender"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}
