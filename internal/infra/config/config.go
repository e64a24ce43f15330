package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`

	Discord struct {
		Token string `envconfig:"DISCORD_TOKEN"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	// RedisAddr опционален: без него подавление повторной отправки
	// в пределах суток отключено.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	Wikipedia struct {
		BaseURL   string        `envconfig:"WIKI_BASE_URL" default:"https://en.wikipedia.org"`
		UserAgent string        `envconfig:"WIKI_USER_AGENT" default:"DinoDaily/1.0"`
		Timeout   time.Duration `envconfig:"WIKI_TIMEOUT" default:"15s"`
	} `envconfig:""`

	Intervals struct {
		Delivery       time.Duration `envconfig:"DELIVERY_TICK" default:"60s"`
		RosterRefresh  time.Duration `envconfig:"ROSTER_REFRESH_INTERVAL" default:"5h"`
		ContentRefresh time.Duration `envconfig:"CONTENT_REFRESH_INTERVAL" default:"24h"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
