package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"p2p_trade/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	roomService *service.RoomService
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(roomService *service.RoomService) *WebSocketHandler {
	return &WebSocketHandler{roomService: roomService}
}

// HandleWebSocket 處理 WebSocket 連接請求
// 會話憑證經由查詢參數攜帶；驗證在升級之前完成，拒絕走 HTTP 狀態碼
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	orderID := c.Param("id")
	token := c.Query("token")

	if err := h.roomService.ValidateConnection(orderID, token); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "訂單房間不存在"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "無效的會話憑證"})
		return
	}

	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}

	// AcceptConnection 是唯一的入口；阻塞直到連線關閉
	if err := h.roomService.AcceptConnection(orderID, token, conn); err != nil {
		conn.Close()
	}
}
