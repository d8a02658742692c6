package storage

import (
	"sync"
	"time"

	"p2p_trade/internal/models"
)

// Room 是訂單房間聚合：一筆訂單的快照、聊天逐字稿與兩個會話憑證
// 只由 MemoryStore 擁有；所有修改必須在持有房間鎖的情況下進行，
// 以保留「單一房間內不交錯修改」的不變量
type Room struct {
	ID          string
	BuyerToken  string
	InviteToken string
	CreatedAt   time.Time

	mu    sync.Mutex
	Order models.OrderSnapshot
	Chat  []models.ChatMessage

	chatCap   int
	attachCap int
}

func newRoom(id, buyerToken, inviteToken string, order models.OrderSnapshot, chatCap, attachCap int) *Room {
	now := time.Now()
	order.LastEventAt = now
	return &Room{
		ID:          id,
		BuyerToken:  buyerToken,
		InviteToken: inviteToken,
		CreatedAt:   now,
		Order:       order,
		chatCap:     chatCap,
		attachCap:   attachCap,
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// AppendChat 追加一則聊天消息，超過上限時淘汰最舊的
// 呼叫者必須持有房間鎖
func (r *Room) AppendChat(msg models.ChatMessage) {
	r.Chat = append(r.Chat, msg)
	if r.chatCap > 0 && len(r.Chat) > r.chatCap {
		r.Chat = r.Chat[len(r.Chat)-r.chatCap:]
	}
}

// UpsertAttachment 登記或更新快照上的附件，超過上限時淘汰最舊的
// 呼叫者必須持有房間鎖
func (r *Room) UpsertAttachment(att models.Attachment) {
	for i := range r.Order.Attachments {
		if r.Order.Attachments[i].ID == att.ID {
			r.Order.Attachments[i] = att
			return
		}
	}
	r.Order.Attachments = append(r.Order.Attachments, att)
	if r.attachCap > 0 && len(r.Order.Attachments) > r.attachCap {
		r.Order.Attachments = r.Order.Attachments[len(r.Order.Attachments)-r.attachCap:]
	}
}

// Touch 記錄最近一次被接受的修改時間
// 呼叫者必須持有房間鎖
func (r *Room) Touch() {
	r.Order.LastEventAt = time.Now()
}

// HistoryCopy 回傳逐字稿的拷貝，供鎖外序列化使用
// 呼叫者必須持有房間鎖
func (r *Room) HistoryCopy() []models.ChatMessage {
	out := make([]models.ChatMessage, len(r.Chat))
	copy(out, r.Chat)
	return out
}
