package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`

	// Assistant provider
	OpenAIKey     string `env:"OPENAI_API_KEY,required"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AssistantID   string `env:"OPENAI_ASSISTANT_ID,required"`

	// Quota
	DefaultMessageLimit int `env:"DEFAULT_MESSAGE_LIMIT" envDefault:"25"`
	MessageCost         int `env:"MESSAGE_COST" envDefault:"1"`

	// Ops alerts (disabled when unset)
	AlertBotToken string `env:"ALERT_BOT_TOKEN"`
	AlertChatID   int64  `env:"ALERT_CHAT_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
