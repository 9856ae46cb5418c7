package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      string `envconfig:"ENV" default:"production"`
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	AdminID  int64  `envconfig:"ADMIN_ID" required:"true" validate:"gt=0"`

	PostgresDSN      string `envconfig:"POSTGRES_DSN"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"neural_bot"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"neural_bot"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	FreeQueriesPerDay int    `envconfig:"FREE_QUERIES_PER_DAY" default:"5" validate:"gte=0"`
	ReferralBonus     int    `envconfig:"REFERRAL_BONUS" default:"3" validate:"gte=0"`
	Timezone          string `envconfig:"TIMEZONE" default:"Asia/Tashkent"`

	PriceWeek     int64 `envconfig:"PRICE_WEEK" default:"15000" validate:"gt=0"`
	PriceMonth    int64 `envconfig:"PRICE_MONTH" default:"45000" validate:"gt=0"`
	PriceYear     int64 `envconfig:"PRICE_YEAR" default:"350000" validate:"gt=0"`
	DurationWeek  int   `envconfig:"DURATION_WEEK" default:"7" validate:"gt=0"`
	DurationMonth int   `envconfig:"DURATION_MONTH" default:"30" validate:"gt=0"`
	DurationYear  int   `envconfig:"DURATION_YEAR" default:"365" validate:"gt=0"`

	ClickServiceID  string `envconfig:"CLICK_SERVICE_ID"`
	CardNumber      string `envconfig:"CARD_NUMBER"`
	CardBank        string `envconfig:"CARD_BANK"`
	CardHolder      string `envconfig:"CARD_HOLDER"`
	SupportUsername string `envconfig:"SUPPORT_USERNAME" default:"support"`

	HTTPAddr      string `envconfig:"HTTP_ADDR"`
	AdminAPIToken string `envconfig:"ADMIN_API_TOKEN"`
	NotifyWorkers int    `envconfig:"NOTIFY_WORKERS" default:"3" validate:"gt=0"`
}

// Load reads an optional env file, then the process environment.
// Variables already present in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return &cfg, nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func (c *Config) PostgresURL() string {
	if dsn := strings.TrimSpace(c.PostgresDSN); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     net.JoinHostPort(c.PostgresHost, strconv.Itoa(c.PostgresPort)),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
