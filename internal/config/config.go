package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务器配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
}

// ServerConfig HTTP/WebSocket 服务配置
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏规则配置
type GameConfig struct {
	LobbyCountdownMS int `yaml:"lobby_countdown_ms"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Game: GameConfig{
			LobbyCountdownMS: 5000,
		},
	}
}

// Load 从文件加载配置，缺省字段回落到默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if cfg.Game.LobbyCountdownMS <= 0 {
		return nil, fmt.Errorf("lobby_countdown_ms 必须为正数，当前为 %d", cfg.Game.LobbyCountdownMS)
	}

	return cfg, nil
}

// LobbyCountdownDuration 开局倒计时时长
func (c *Config) LobbyCountdownDuration() time.Duration {
	return time.Duration(c.Game.LobbyCountdownMS) * time.Millisecond
}
