package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage 代表聊天逐字稿中的一則消息
// 逐字稿只追加不修改，超過上限時淘汰最舊的消息
type ChatMessage struct {
	ID          string       `json:"id"`
	Sender      Role         `json:"sender"`
	Body        string       `json:"body"`
	Timestamp   time.Time    `json:"ts"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewChatMessage 創建一則由交易方發出的聊天消息
func NewChatMessage(sender Role, body string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// NewSystemMessage 創建一則系統消息
func NewSystemMessage(body string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Sender:    RoleSystem,
		Body:      body,
		Timestamp: time.Now(),
	}
}
