package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"p2p_trade/internal/models"
	"p2p_trade/internal/service"
)

// OrderHandler 處理與訂單房間相關的請求
type OrderHandler struct {
	roomService *service.RoomService
}

// NewOrderHandler 創建一個新的 OrderHandler 實例
func NewOrderHandler(roomService *service.RoomService) *OrderHandler {
	return &OrderHandler{roomService: roomService}
}

// CreateOrder 處理創建新訂單的請求
// 兩個會話憑證只在這個回應中出現一次
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input models.CreateOrderInput
	// 數值欄位寬容解碼；完全無法解析的請求體才拒絕
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的請求內容"})
		return
	}

	created, err := h.roomService.CreateOrder(input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "創建訂單失敗"})
		return
	}

	c.JSON(http.StatusCreated, created)
}
