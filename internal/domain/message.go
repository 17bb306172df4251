package domain

import "time"

type MessageID string

type Message struct {
	ID        MessageID `json:"id"`
	GroupID   GroupID   `json:"group_id"`
	SenderID  UserID    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	IsFile    bool      `json:"is_file,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
}
