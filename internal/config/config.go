package config

import (
	"fmt"
	"os"
)

// AppConfig holds the non-database settings the bot needs at startup.
type AppConfig struct {
	ServerPort string

	InfobipBaseURL string
	InfobipAPIKey  string
	WhatsAppSender string

	AblyAPIKey  string // optional; realtime publish disabled when empty
	AblyChannel string
}

// LoadAppConfig loads application configuration from environment variables.
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		ServerPort:     os.Getenv("SERVER_PORT"),
		InfobipBaseURL: os.Getenv("INFOBIP_BASE_URL"),
		InfobipAPIKey:  os.Getenv("INFOBIP_API_KEY"),
		WhatsAppSender: os.Getenv("INFOBIP_WHATSAPP_SENDER"),
		AblyAPIKey:     os.Getenv("ABLY_API_KEY"),
		AblyChannel:    os.Getenv("ABLY_CHANNEL"),
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "3000"
	}
	if cfg.InfobipBaseURL == "" || cfg.InfobipAPIKey == "" || cfg.WhatsAppSender == "" {
		return nil, fmt.Errorf("messaging environment variables not set (INFOBIP_BASE_URL, INFOBIP_API_KEY, INFOBIP_WHATSAPP_SENDER)")
	}
	if cfg.AblyChannel == "" {
		cfg.AblyChannel = "you-should-write-an-sdk"
	}

	return cfg, nil
}
