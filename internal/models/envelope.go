package models

import "encoding/json"

// 客戶端可送入的消息類型
const (
	MsgSessionIdentify  = "session.identify"
	MsgOrderSubscribe   = "order.subscribe"
	MsgChatSend         = "chat.send"
	MsgOrderAction      = "order.action"
	MsgAttachmentNotify = "attachment.notify"
)

// 伺服端送出的事件類型
const (
	EvtSystemNotice    = "system.notice"
	EvtOrderSnapshot   = "order.snapshot"
	EvtChatHistory     = "chat.history"
	EvtChatMessage     = "chat.message"
	EvtOrderUpdate     = "order.update"
	EvtAttachmentAdded = "attachment.added"
	EvtError           = "error"
)

// Envelope 是傳輸層消息信封：{"type": string, "payload": object}
// payload 依 type 決定解碼目標，未知或格式錯誤的消息只回報給發送端
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OutEnvelope 是送出事件的信封
type OutEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// IdentifyPayload 綁定連線的角色與顯示資訊
type IdentifyPayload struct {
	Role        Role   `json:"role"`
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
}

// ChatSendPayload 發送聊天消息
type ChatSendPayload struct {
	Body string `json:"body"`
}

// OrderActionPayload 請求一次狀態轉移
type OrderActionPayload struct {
	Action string `json:"action"`
}

// AttachmentNotifyPayload 宣告一個上傳完成的附件
type AttachmentNotifyPayload struct {
	UploadID    string     `json:"uploadId"`
	URL         string     `json:"url"`
	Name        string     `json:"name"`
	ContentType string     `json:"contentType"`
	Size        FlexNumber `json:"size"`
}

// ErrorPayload 是 error 事件的內容，只會送回給出錯的連線
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NoticePayload 是 system.notice 事件的內容
type NoticePayload struct {
	Message string `json:"message"`
}

// SnapshotPayload 是 order.snapshot 事件的內容
// AvailableActions 依接收端的角色計算，因此只在逐連線回覆中出現
type SnapshotPayload struct {
	OrderSnapshot
	AvailableActions []string `json:"availableActions"`
}

// HistoryPayload 是 chat.history 事件的內容
type HistoryPayload struct {
	Messages []ChatMessage `json:"messages"`
}
