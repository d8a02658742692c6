package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"p2p_trade/internal/metrics"
	"p2p_trade/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 8192
	sendQueueSize  = 256
)

// Conn 是連線的雙工抽象：真正的傳輸綁定（gorilla websocket）實作一次，
// 測試用假連線實作一次
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client 代表一條掛在房間上的 WebSocket 連線
// Role 在收到 session.identify 之前保持空值；RoleHint 來自憑證索引
type Client struct {
	Conn        Conn
	RoomID      string
	Token       string
	Role        models.Role
	RoleHint    models.Role
	Address     string
	DisplayName string
	SendChan    chan []byte

	done        chan struct{}
	chatLimiter *rate.Limiter
}

// EffectiveRole 回傳已識別的角色，未識別時退回憑證的角色提示
// 只用於計算快照上的 availableActions；動作的權限檢查只看已識別的角色
func (c *Client) EffectiveRole() models.Role {
	if c.Role != "" {
		return c.Role
	}
	return c.RoleHint
}

// WebSocketManager 管理所有的 WebSocket 連線與事件傳遞
type WebSocketManager struct {
	clients    map[string]map[*Client]bool // 兩層 map: roomID -> client -> bool
	clientsMux sync.RWMutex
	service    *RoomService
	logger     zerolog.Logger
}

// NewWebSocketManager 創建並初始化新的 WebSocket 管理器
func NewWebSocketManager(logger zerolog.Logger) *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[string]map[*Client]bool),
		logger:  logger,
	}
}

// HandleClient 處理一條已通過驗證的連線：註冊、送出歡迎通知、
// 啟動讀寫處理。讀取端結束時負責把連線從房間移除
func (m *WebSocketManager) HandleClient(client *Client) {
	m.addClient(client)

	defer func() {
		m.removeClient(client)
		close(client.done)
		client.Conn.Close()
	}()

	m.SendEvent(client, models.EvtSystemNotice, models.NoticePayload{
		Message: "connected to order room " + client.RoomID,
	})

	go m.writePump(client)
	m.readPump(client)
}

// readPump 持續監聽並分派從客戶端接收的消息
func (m *WebSocketManager) readPump(client *Client) {
	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Debug().Err(err).Str("room", client.RoomID).Msg("websocket unexpected close")
			}
			break
		}

		m.service.HandleMessage(client, message)
	}
}

// writePump 處理向客戶端發送事件的邏輯，並維持心跳
func (m *WebSocketManager) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.done:
			return
		}
	}
}

// BroadcastEvent 向房間內的所有連線廣播事件
// 事件只序列化一次；單一連線的投遞失敗（佇列滿、連線將斷）直接放棄，
// 既不影響其他連線，也不把連線移出房間——移除只由讀取端的關閉路徑負責
func (m *WebSocketManager) BroadcastEvent(roomID, eventType string, payload any) {
	data, err := json.Marshal(models.OutEnvelope{Type: eventType, Payload: payload})
	if err != nil {
		m.logger.Error().Err(err).Str("type", eventType).Msg("event encoding error")
		return
	}

	m.clientsMux.RLock()
	targets := make([]*Client, 0, len(m.clients[roomID]))
	for client := range m.clients[roomID] {
		targets = append(targets, client)
	}
	m.clientsMux.RUnlock()

	for _, client := range targets {
		select {
		case client.SendChan <- data:
		default:
		}
	}

	metrics.EventsBroadcast.WithLabelValues(eventType).Inc()
}

// SendEvent 向單一連線發送事件，投遞同樣是盡力而為
func (m *WebSocketManager) SendEvent(client *Client, eventType string, payload any) {
	data, err := json.Marshal(models.OutEnvelope{Type: eventType, Payload: payload})
	if err != nil {
		m.logger.Error().Err(err).Str("type", eventType).Msg("event encoding error")
		return
	}

	select {
	case client.SendChan <- data:
	default:
	}
}

// addClient 安全地添加新的連線
func (m *WebSocketManager) addClient(client *Client) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	if m.clients[client.RoomID] == nil {
		m.clients[client.RoomID] = make(map[*Client]bool)
	}
	m.clients[client.RoomID][client] = true
	metrics.ConnectionsActive.Inc()
}

// removeClient 安全地移除連線
func (m *WebSocketManager) removeClient(client *Client) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	if clients, ok := m.clients[client.RoomID]; ok {
		if clients[client] {
			delete(clients, client)
			metrics.ConnectionsActive.Dec()
		}
		if len(clients) == 0 {
			delete(m.clients, client.RoomID)
		}
	}
}

// RoomClients 獲取指定房間的存活連線數量，回收器用它判斷房間是否閒置
func (m *WebSocketManager) RoomClients(roomID string) int {
	m.clientsMux.RLock()
	defer m.clientsMux.RUnlock()

	return len(m.clients[roomID])
}
