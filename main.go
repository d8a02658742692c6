package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"p2p_trade/internal/api"
	"p2p_trade/internal/service"
	"p2p_trade/internal/storage"
	"p2p_trade/pkg/config"
)

// init 依環境設置日誌輸出
// 開發模式使用帶時間戳的美化輸出；DEBUG 環境變量可開啟除錯級別
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load config")
	}

	// 初始化記憶體存放區
	// 所有房間、憑證與暫存上傳都只存在於行程記憶體中
	store := storage.NewMemoryStore(storage.Config{
		IdleTTL:         cfg.Room.IdleTTL,
		ReclaimInterval: cfg.Room.ReclaimInterval,
		ChatCap:         cfg.Room.ChatHistoryCap,
		AttachmentCap:   cfg.Room.AttachmentCap,
	})

	// 初始化服務
	services := service.NewServices(store, cfg, zlog.Logger)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, cfg)

	// 啟動伺服器
	zlog.Info().Str("address", cfg.Server.Address).Msg("trade room coordinator listening")
	if err := r.Run(cfg.Server.Address); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to run server")
	}
}
