package factionbot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	Bot   BotConfig   `toml:"bot"`
	DB    DBConfig    `toml:"db"`
	Jobs  JobsConfig  `toml:"jobs"`
	Mongo MongoConfig `toml:"mongo"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// JobsConfig tunes the scheduled economy jobs.
type JobsConfig struct {
	// DailyHourUTC is the UTC hour at which consumption and aging run.
	DailyHourUTC int `toml:"daily_hour_utc"`
	// BatchConcurrency bounds how many characters are processed at once.
	BatchConcurrency int `toml:"batch_concurrency"`
}

// MongoConfig points at the legacy deployment for one-shot imports.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}
