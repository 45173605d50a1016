package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN           string `yaml:"url"`
		MaxOpenConns  int    `yaml:"max_open_conns"`
		RunMigrations bool   `yaml:"run_migrations"`
	} `yaml:"database"`

	JWT struct {
		Secret      string   `yaml:"secret"`
		TTL         int      `yaml:"ttl"`          // минуты
		CookieNames []string `yaml:"cookie_names"` // порядок важен: первое имя проверяется первым
	} `yaml:"jwt"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Notifications struct {
		ListLimit          int   `yaml:"list_limit"`
		MaxListLimit       int   `yaml:"max_list_limit"`
		UnreadCacheTTL     int   `yaml:"unread_cache_ttl"`     // секунды
		LegacyNameMatching *bool `yaml:"legacy_name_matching"` // nil - включено
	} `yaml:"notifications"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Outbox struct {
		Interval    int `yaml:"interval"` // секунды
		BatchSize   int `yaml:"batch_size"`
		MaxAttempts int `yaml:"max_attempts"`
		Retention   int `yaml:"retention_hours"`
	} `yaml:"outbox"`

	FirstAdmin struct {
		Email string `yaml:"email"`
		Name  string `yaml:"name"`
	} `yaml:"first_admin"`
}

var AppConfig *Config

// LoadConfig читает .env (если есть), затем config.yaml.
// Если задан DATABASE_URL - конфигурация целиком берется из переменных окружения (docker, CI).
func LoadConfig() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	var cfg Config
	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
	} else {
		log.Println("✅ Загрузка конфигурации из ПЕРЕМЕННЫХ ОКРУЖЕНИЯ")
		loadFromEnv(&cfg, dbURL)
	}

	cfg.ApplyDefaults()
	AppConfig = &cfg
}

func loadFromEnv(cfg *Config, dbURL string) {
	cfg.Database.DSN = dbURL
	cfg.Database.RunMigrations = envBool("DATABASE_RUN_MIGRATIONS", true)
	cfg.Server.Host = os.Getenv("SERVER_HOST")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.CookieNames = envList("JWT_COOKIE_NAMES")

	cfg.CORS.AllowedOrigins = envList("CORS_ALLOWED_ORIGINS")

	nameMatching := envBool("NOTIFICATIONS_LEGACY_NAME_MATCHING", true)
	cfg.Notifications.LegacyNameMatching = &nameMatching

	cfg.Email.Enabled = envBool("EMAIL_ENABLED", false)
	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort, _ = strconv.Atoi(os.Getenv("SMTP_PORT"))
	cfg.Email.SMTPUsername = os.Getenv("SMTP_USER")
	cfg.Email.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.Email.FromEmail = os.Getenv("SMTP_FROM_EMAIL")
	cfg.Email.FromName = os.Getenv("SMTP_FROM_NAME")

	cfg.Kafka.Enabled = envBool("KAFKA_ENABLED", false)
	cfg.Kafka.Brokers = envList("KAFKA_BROKERS")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	cfg.FirstAdmin.Email = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdmin.Name = os.Getenv("FIRST_ADMIN_NAME")
}

// ApplyDefaults заполняет незаданные значения
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 60
	}
	if len(c.JWT.CookieNames) == 0 {
		c.JWT.CookieNames = []string{"auth_token", "token"}
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Notifications.ListLimit == 0 {
		c.Notifications.ListLimit = 50
	}
	if c.Notifications.MaxListLimit == 0 {
		c.Notifications.MaxListLimit = 100
	}
	if c.Notifications.UnreadCacheTTL == 0 {
		c.Notifications.UnreadCacheTTL = 5
	}
	if c.Notifications.LegacyNameMatching == nil {
		enabled := true
		c.Notifications.LegacyNameMatching = &enabled
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "curaconnect.notifications"
	}
	if c.Outbox.Interval == 0 {
		c.Outbox.Interval = 5
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.MaxAttempts == 0 {
		c.Outbox.MaxAttempts = 10
	}
	if c.Outbox.Retention == 0 {
		c.Outbox.Retention = 168
	}
	if c.FirstAdmin.Name == "" {
		c.FirstAdmin.Name = "Platform Administrator"
	}
}

func (c *Config) UnreadCacheTTL() time.Duration {
	return time.Duration(c.Notifications.UnreadCacheTTL) * time.Second
}

// NameMatchingEnabled - поиск адресата ответа по имени в тексте уведомления
func (c *Config) NameMatchingEnabled() bool {
	return c.Notifications.LegacyNameMatching == nil || *c.Notifications.LegacyNameMatching
}

func (c *Config) OutboxInterval() time.Duration {
	return time.Duration(c.Outbox.Interval) * time.Second
}

func (c *Config) OutboxRetention() time.Duration {
	return time.Duration(c.Outbox.Retention) * time.Hour
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
