package models

import (
	"time"
)

// OrderStatus 定義訂單狀態的類型
type OrderStatus string

const (
	StatusAwaitingCounterparty OrderStatus = "awaiting_counterparty"
	StatusAwaitingPayment      OrderStatus = "awaiting_payment"
	StatusBuyerPaid            OrderStatus = "buyer_paid"
	StatusSellerConfirmed      OrderStatus = "seller_confirmed"
	StatusCompleted            OrderStatus = "completed"
	StatusCancelled            OrderStatus = "cancelled"
	StatusAppealed             OrderStatus = "appealed"
)

// OrderSnapshot 表示一筆 P2P 法幣↔加密貨幣訂單的即時快照
// Seller 在第二位參與者加入之前保持 null
type OrderSnapshot struct {
	OrderID       string       `json:"orderId"`
	Status        OrderStatus  `json:"status"`
	AssetSymbol   string       `json:"assetSymbol"`
	TokenAmount   float64      `json:"tokenAmount"`
	FiatAmount    float64      `json:"fiatAmount"`
	FiatCurrency  string       `json:"fiatCurrency"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
	Memo          string       `json:"memo,omitempty"`
	Buyer         *Participant `json:"buyer,omitempty"`
	Seller        *Participant `json:"seller"`
	EscrowAddress string       `json:"escrowAddress,omitempty"`
	Attachments   []Attachment `json:"attachments"`
	LastEventAt   time.Time    `json:"lastEventAt"`
}

// Clone 回傳快照的深拷貝，供廣播前在鎖外序列化使用
func (o *OrderSnapshot) Clone() OrderSnapshot {
	out := *o
	if o.Buyer != nil {
		b := *o.Buyer
		out.Buyer = &b
	}
	if o.Seller != nil {
		s := *o.Seller
		out.Seller = &s
	}
	out.Attachments = make([]Attachment, len(o.Attachments))
	copy(out.Attachments, o.Attachments)
	return out
}

// CreateOrderInput 建立訂單時的輸入
// 數值欄位容忍格式錯誤的輸入（一律轉為 0，不拒絕請求）
type CreateOrderInput struct {
	AssetSymbol   string     `json:"assetSymbol"`
	TokenAmount   FlexNumber `json:"tokenAmount"`
	FiatAmount    FlexNumber `json:"fiatAmount"`
	FiatCurrency  string     `json:"fiatCurrency"`
	PaymentMethod string     `json:"paymentMethod"`
	Memo          string     `json:"memo"`
	DisplayName   string     `json:"displayName"`
	Address       string     `json:"address"`
}

// OrderCreated 是建立訂單的回應：買方憑證與賣方邀請憑證只在這裡回傳一次
type OrderCreated struct {
	OrderID     string `json:"orderId"`
	Token       string `json:"token"`
	InviteToken string `json:"inviteToken"`
	Role        Role   `json:"role"`
}

// Attachment 表示一個已被聊天引用的附件
type Attachment struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	UploadedBy  Role      `json:"uploadedBy"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
