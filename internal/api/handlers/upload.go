package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"p2p_trade/internal/models"
	"p2p_trade/internal/service"
)

// UploadHandler 處理附件上傳的暫存流程
// 實際的位元組傳輸由外部協作者對合成位址發起
type UploadHandler struct {
	roomService *service.RoomService
	maxBytes    int64
}

// NewUploadHandler 創建一個新的 UploadHandler 實例
func NewUploadHandler(roomService *service.RoomService, maxBytes int64) *UploadHandler {
	return &UploadHandler{roomService: roomService, maxBytes: maxBytes}
}

// CreatePresignedUpload 處理預簽上傳的請求
// 會話憑證已由中間件驗證；這裡只需檢查房間是否匹配
func (h *UploadHandler) CreatePresignedUpload(c *gin.Context) {
	var input models.PresignUploadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的請求內容"})
		return
	}
	if input.OrderID == "" {
		input.OrderID = c.Param("id")
	}

	token := c.GetString("sessionToken")
	presigned, err := h.roomService.CreatePresignedUpload(token, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "無效的會話憑證"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "會話憑證與訂單不符"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "預簽上傳失敗"})
		}
		return
	}

	c.JSON(http.StatusCreated, presigned)
}

// StoreUpload 接收暫存上傳的位元組（合成位址宣告的 PUT 目標）
func (h *UploadHandler) StoreUpload(c *gin.Context) {
	uploadID := c.Param("id")

	reader := io.Reader(c.Request.Body)
	if h.maxBytes > 0 {
		reader = io.LimitReader(c.Request.Body, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "讀取上傳內容失敗"})
		return
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "上傳內容過大"})
		return
	}

	if err := h.roomService.StoreUploadData(uploadID, data, c.ContentType()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "不存在的上傳ID"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploadId": uploadID})
}

// GetUpload 取回已收到位元組的上傳；只宣告未上傳的回 404
func (h *UploadHandler) GetUpload(c *gin.Context) {
	upload, err := h.roomService.GetUpload(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "上傳不存在或尚未完成"})
		return
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, upload.Data)
}
