package storage

import (
	"sync"
	"time"

	"p2p_trade/internal/models"
)

// Config 控制存放區的容量上限與回收節奏
type Config struct {
	IdleTTL         time.Duration
	ReclaimInterval time.Duration
	ChatCap         int
	AttachmentCap   int
}

// TokenBinding 是會話憑證索引的值：憑證反查到房間與角色提示
type TokenBinding struct {
	OrderID string
	Role    models.Role
}

// MemoryStore 是所有可變狀態的唯一擁有者：房間、憑證索引與暫存上傳
// 狀態只存在於記憶體中，行程重啟即消失
// 取代了原本的資料庫存取層：這個核心被規定為揮發性的，沒有任何組件可以落地
type MemoryStore struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	tokens  map[string]TokenBinding
	uploads map[string]*models.Upload

	cfg         Config
	lastReclaim time.Time
	now         func() time.Time
}

func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		rooms:       make(map[string]*Room),
		tokens:      make(map[string]TokenBinding),
		uploads:     make(map[string]*models.Upload),
		cfg:         cfg,
		lastReclaim: time.Now(),
		now:         time.Now,
	}
}

// CreateRoom 建立房間並把兩個憑證登記進索引（買方與受邀賣方）
func (s *MemoryStore) CreateRoom(id, buyerToken, inviteToken string, order models.OrderSnapshot) *Room {
	room := newRoom(id, buyerToken, inviteToken, order, s.cfg.ChatCap, s.cfg.AttachmentCap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[id] = room
	s.tokens[buyerToken] = TokenBinding{OrderID: id, Role: models.RoleBuyer}
	s.tokens[inviteToken] = TokenBinding{OrderID: id, Role: models.RoleSeller}
	return room
}

// Room 依 ID 查找房間
func (s *MemoryStore) Room(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// RoomCount 回傳目前的房間數量
func (s *MemoryStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// ResolveToken 透過憑證索引驗證會話憑證
func (s *MemoryStore) ResolveToken(token string) (TokenBinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	binding, ok := s.tokens[token]
	return binding, ok
}

// StageUpload 暫存一筆已宣告的上傳
func (s *MemoryStore) StageUpload(u *models.Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[u.ID] = u
}

// AttachUploadData 把位元組掛到已宣告的上傳上；未宣告的 ID 回傳 false
func (s *MemoryStore) AttachUploadData(id string, data []byte, contentType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return false
	}
	u.Data = data
	u.Size = int64(len(data))
	if contentType != "" {
		u.ContentType = contentType
	}
	u.UpdatedAt = s.now()
	return true
}

// ReceivedUpload 只在位元組已送達時回傳上傳的拷貝，區分「已宣告」與「已收到」
func (s *MemoryStore) ReceivedUpload(id string) (*models.Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok || !u.Received() {
		return nil, false
	}
	out := *u
	return &out, true
}

// Upload 依 ID 查找暫存上傳，不論位元組是否已送達
func (s *MemoryStore) Upload(id string) (*models.Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	return u, ok
}

// DeleteUpload 移除一筆暫存上傳（已被附件引用或被回收）
func (s *MemoryStore) DeleteUpload(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, id)
}

// PendingUploads 回傳指定房間尚未被引用的上傳
func (s *MemoryStore) PendingUploads(orderID string) []*models.Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Upload
	for _, u := range s.uploads {
		if u.OrderID == orderID {
			out = append(out, u)
		}
	}
	return out
}

// MaybeReclaim 機會式回收：只在距上次回收超過設定間隔時掃描
// 閒置（無存活連線）且超過 TTL 的房間連同兩個憑證一併刪除；
// 位元組逾時未更新的上傳一併丟棄。回收只是釋放記憶體，不是正確性機制
func (s *MemoryStore) MaybeReclaim(liveCount func(roomID string) int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastReclaim) < s.cfg.ReclaimInterval {
		return 0
	}
	s.lastReclaim = now

	reclaimed := 0
	for id, room := range s.rooms {
		if liveCount != nil && liveCount(id) > 0 {
			continue
		}
		room.mu.Lock()
		lastEvent := room.Order.LastEventAt
		room.mu.Unlock()
		if now.Sub(lastEvent) <= s.cfg.IdleTTL {
			continue
		}
		delete(s.rooms, id)
		delete(s.tokens, room.BuyerToken)
		delete(s.tokens, room.InviteToken)
		reclaimed++
	}

	for id, u := range s.uploads {
		_, roomAlive := s.rooms[u.OrderID]
		if !roomAlive || now.Sub(u.UpdatedAt) > s.cfg.IdleTTL {
			delete(s.uploads, id)
		}
	}

	return reclaimed
}
