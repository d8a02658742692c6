package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"p2p_trade/internal/metrics"
	"p2p_trade/internal/models"
	"p2p_trade/internal/storage"
	"p2p_trade/internal/utils"
	"p2p_trade/pkg/config"
)

var (
	ErrUnauthorized = errors.New("missing or unknown session token")
	ErrForbidden    = errors.New("session token does not match order")
	ErrNotFound     = errors.New("not found")
)

// RoomService 是訂單房間的對外契約：建立訂單、預簽上傳、
// 暫存上傳位元組、接受 WebSocket 連線
type RoomService struct {
	store   *storage.MemoryStore
	manager *WebSocketManager
	cfg     *config.Config
	logger  zerolog.Logger
}

func NewRoomService(store *storage.MemoryStore, manager *WebSocketManager, cfg *config.Config, logger zerolog.Logger) *RoomService {
	return &RoomService{
		store:   store,
		manager: manager,
		cfg:     cfg,
		logger:  logger,
	}
}

// CreateOrder 建立訂單房間並回傳買方憑證與賣方邀請憑證
// 數值輸入已在解碼階段被寬容處理（格式錯誤轉為 0），這裡不再有錯誤情況
func (s *RoomService) CreateOrder(input models.CreateOrderInput) (*models.OrderCreated, error) {
	s.maybeReclaim()

	buyerToken, err := utils.NewSessionToken()
	if err != nil {
		return nil, err
	}
	inviteToken, err := utils.NewSessionToken()
	if err != nil {
		return nil, err
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = "anonymous"
	}

	orderID := utils.NewID()
	order := models.OrderSnapshot{
		OrderID:       orderID,
		Status:        models.StatusAwaitingCounterparty,
		AssetSymbol:   input.AssetSymbol,
		TokenAmount:   input.TokenAmount.Float64(),
		FiatAmount:    input.FiatAmount.Float64(),
		FiatCurrency:  input.FiatCurrency,
		PaymentMethod: input.PaymentMethod,
		Memo:          input.Memo,
		Buyer: &models.Participant{
			DisplayName: displayName,
			Address:     input.Address,
		},
		Attachments: []models.Attachment{},
	}

	s.store.CreateRoom(orderID, buyerToken, inviteToken, order)
	metrics.OrdersCreated.Inc()
	s.logger.Info().Str("order", orderID).Str("asset", input.AssetSymbol).Msg("order room created")

	return &models.OrderCreated{
		OrderID:     orderID,
		Token:       buyerToken,
		InviteToken: inviteToken,
		Role:        models.RoleBuyer,
	}, nil
}

// ResolveToken 透過憑證索引驗證會話憑證，HTTP 中間件使用它
func (s *RoomService) ResolveToken(token string) (storage.TokenBinding, bool) {
	return s.store.ResolveToken(token)
}

// RoomCount 回傳目前的房間數量
func (s *RoomService) RoomCount() int {
	return s.store.RoomCount()
}

// CreatePresignedUpload 驗證會話憑證後暫存一筆上傳，
// 回傳合成的上傳位址與要求的 HTTP 方法
func (s *RoomService) CreatePresignedUpload(token string, input models.PresignUploadInput) (*models.PresignedUpload, error) {
	s.maybeReclaim()

	binding, ok := s.store.ResolveToken(token)
	if !ok {
		return nil, ErrUnauthorized
	}
	if binding.OrderID != input.OrderID {
		return nil, ErrForbidden
	}
	if _, ok := s.store.Room(binding.OrderID); !ok {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	upload := &models.Upload{
		ID:          utils.NewID(),
		OrderID:     input.OrderID,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		Size:        input.Size.Int64(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.store.StageUpload(upload)
	metrics.UploadsStaged.Inc()

	url := "/api/uploads/" + upload.ID
	return &models.PresignedUpload{
		UploadID:  upload.ID,
		UploadURL: url,
		FileURL:   url,
		Method:    "PUT",
	}, nil
}

// StoreUploadData 把位元組掛到已宣告的上傳上
func (s *RoomService) StoreUploadData(uploadID string, data []byte, contentType string) error {
	s.maybeReclaim()

	if !s.store.AttachUploadData(uploadID, data, contentType) {
		return ErrNotFound
	}
	return nil
}

// GetUpload 只在位元組已送達時回傳上傳，區分「已宣告」與「已收到」
func (s *RoomService) GetUpload(uploadID string) (*models.Upload, error) {
	upload, ok := s.store.ReceivedUpload(uploadID)
	if !ok {
		return nil, ErrNotFound
	}
	return upload, nil
}

// AcceptConnection 是把傳輸層連線變成房間參與者的唯一入口
// 驗證失敗不會留下任何狀態；成功後阻塞直到連線關閉
func (s *RoomService) AcceptConnection(orderID, token string, conn Conn) error {
	binding, ok := s.store.ResolveToken(token)
	if !ok || binding.OrderID != orderID {
		return ErrUnauthorized
	}
	room, ok := s.store.Room(orderID)
	if !ok {
		return ErrNotFound
	}

	client := s.newClient(conn, room.ID, token, binding.Role)
	s.manager.HandleClient(client)
	return nil
}

// ValidateConnection 在升級連線之前先做同樣的驗證，讓拒絕可以走 HTTP 狀態碼
func (s *RoomService) ValidateConnection(orderID, token string) error {
	binding, ok := s.store.ResolveToken(token)
	if !ok || binding.OrderID != orderID {
		return ErrUnauthorized
	}
	if _, ok := s.store.Room(orderID); !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RoomService) newClient(conn Conn, roomID, token string, hint models.Role) *Client {
	limit := rate.Limit(s.cfg.Room.ChatRatePerSec)
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := s.cfg.Room.ChatRateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		Conn:        conn,
		RoomID:      roomID,
		Token:       token,
		RoleHint:    hint,
		SendChan:    make(chan []byte, sendQueueSize),
		done:        make(chan struct{}),
		chatLimiter: rate.NewLimiter(limit, burst),
	}
}

// maybeReclaim 在存放區的修改路徑上機會式觸發回收
func (s *RoomService) maybeReclaim() {
	reclaimed := s.store.MaybeReclaim(s.manager.RoomClients)
	if reclaimed > 0 {
		metrics.RoomsReclaimed.Add(float64(reclaimed))
		s.logger.Info().Int("rooms", reclaimed).Msg("reclaimed idle order rooms")
	}
}
