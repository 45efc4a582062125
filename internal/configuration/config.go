package configuration

import (
	"encoding/json"
	"os"
	"time"
)

type SocketConfig struct {
	URL                  string `json:"url"`
	KeepaliveSeconds     int    `json:"keepalive_seconds"`
	ReconnectBaseMillis  int    `json:"reconnect_base_millis"`
	MaxReconnectAttempts int    `json:"max_reconnect_attempts"`
	QueueSize            int    `json:"queue_size"`
}

type APIConfig struct {
	BaseURL string `json:"base_url"`
}

type SyncConfig struct {
	TypingTTLSeconds int `json:"typing_ttl_seconds"`
}

type Config struct {
	Socket SocketConfig `json:"socket"`
	API    APIConfig    `json:"api"`
	Sync   SyncConfig   `json:"sync"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) KeepaliveInterval() time.Duration {
	return time.Duration(c.Socket.KeepaliveSeconds) * time.Second
}

func (c *Config) ReconnectBaseDelay() time.Duration {
	return time.Duration(c.Socket.ReconnectBaseMillis) * time.Millisecond
}

func (c *Config) TypingTTL() time.Duration {
	return time.Duration(c.Sync.TypingTTLSeconds) * time.Second
}
