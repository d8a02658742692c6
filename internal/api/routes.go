package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"p2p_trade/internal/api/handlers"
	"p2p_trade/internal/middleware"
	"p2p_trade/internal/service"
	"p2p_trade/pkg/config"
)

func SetupRoutes(r *gin.Engine, services *service.Services, cfg *config.Config) {
	// 初始化 handlers
	orderHandler := handlers.NewOrderHandler(services.Room)
	uploadHandler := handlers.NewUploadHandler(services.Room, cfg.Upload.MaxBytes)
	wsHandler := handlers.NewWebSocketHandler(services.Room)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 創建訂單（回傳買方憑證與賣方邀請憑證）
		api.POST("/orders", orderHandler.CreateOrder)

		// WebSocket 連接點（憑證經由查詢參數驗證）
		api.GET("/orders/:id/ws", wsHandler.HandleWebSocket)

		// 暫存上傳的位元組傳輸（合成位址的 PUT/GET 目標）
		api.PUT("/uploads/:id", uploadHandler.StoreUpload)
		api.GET("/uploads/:id", uploadHandler.GetUpload)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"rooms":  services.Room.RoomCount(),
			})
		})
	}

	// 需要會話憑證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.SessionAuth(services.Room))
	{
		// 預簽上傳
		authorized.POST("/orders/:id/uploads", uploadHandler.CreatePresignedUpload)
	}

	// Prometheus 指標
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
