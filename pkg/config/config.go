package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Room   RoomConfig
	Upload UploadConfig
}

type ServerConfig struct {
	Address string
}

type RoomConfig struct {
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	ReclaimInterval time.Duration `mapstructure:"reclaim_interval"`
	ChatHistoryCap  int           `mapstructure:"chat_history_cap"`
	AttachmentCap   int           `mapstructure:"attachment_cap"`
	ChatRatePerSec  float64       `mapstructure:"chat_rate_per_sec"`
	ChatRateBurst   int           `mapstructure:"chat_rate_burst"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	setDefaults()

	// 配置文件是可選的；缺少時使用默認值
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default 回傳未讀取任何配置文件時的默認配置，測試也使用它
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: ":8080"},
		Room: RoomConfig{
			IdleTTL:         30 * time.Minute,
			ReclaimInterval: time.Minute,
			ChatHistoryCap:  200,
			AttachmentCap:   20,
			ChatRatePerSec:  5,
			ChatRateBurst:   10,
		},
		Upload: UploadConfig{MaxBytes: 8 << 20},
	}
}

func setDefaults() {
	def := Default()
	viper.SetDefault("server.address", def.Server.Address)
	viper.SetDefault("room.idle_ttl", def.Room.IdleTTL)
	viper.SetDefault("room.reclaim_interval", def.Room.ReclaimInterval)
	viper.SetDefault("room.chat_history_cap", def.Room.ChatHistoryCap)
	viper.SetDefault("room.attachment_cap", def.Room.AttachmentCap)
	viper.SetDefault("room.chat_rate_per_sec", def.Room.ChatRatePerSec)
	viper.SetDefault("room.chat_rate_burst", def.Room.ChatRateBurst)
	viper.SetDefault("upload.max_bytes", def.Upload.MaxBytes)
}
