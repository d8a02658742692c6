package service

import (
	"github.com/rs/zerolog"

	"p2p_trade/internal/storage"
	"p2p_trade/pkg/config"
)

type Services struct {
	Room      *RoomService
	WebSocket *WebSocketManager
}

func NewServices(store *storage.MemoryStore, cfg *config.Config, logger zerolog.Logger) *Services {
	manager := NewWebSocketManager(logger)
	roomService := NewRoomService(store, manager, cfg, logger)
	manager.service = roomService

	return &Services{
		Room:      roomService,
		WebSocket: manager,
	}
}
