package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port      int
	LogLevel  string
	DB        DB
	Kafka     Kafka
	Redis     Redis
	Auth      Auth
	Dispatch  Dispatch
	Delivery  Delivery
	Reaper    Reaper
	RateLimit RateLimit
}

// DB stores PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns a pgx connection string.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Kafka stores the order-events consumer settings. Empty brokers disable the consumer.
type Kafka struct {
	Brokers     []string
	GroupID     string
	OrdersTopic string
}

// Redis stores live-event broker settings. An empty address keeps fan-out in process.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Auth stores identity token settings.
type Auth struct {
	JWTSecret string
}

// Dispatch stores cascade settings.
type Dispatch struct {
	ResponseWindow   time.Duration
	OperationTimeout time.Duration
}

// Delivery stores lifecycle settings.
type Delivery struct {
	RatePerKm        float64
	MaxCodeAttempts  int
	OperationTimeout time.Duration
}

// Reaper stores stale order sweep settings.
type Reaper struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// RateLimit stores HTTP rate limiter settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := Default()
	p := envParser{}

	cfg.Port = p.int("PORT", cfg.Port)
	cfg.LogLevel = p.str("LOG_LEVEL", cfg.LogLevel)

	cfg.DB.Host = p.str("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = p.str("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = p.str("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = p.str("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = p.str("POSTGRES_DB", cfg.DB.Name)

	cfg.Kafka.Brokers = p.list("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.GroupID = p.str("KAFKA_GROUP_ID", cfg.Kafka.GroupID)
	cfg.Kafka.OrdersTopic = p.str("KAFKA_ORDERS_TOPIC", cfg.Kafka.OrdersTopic)

	cfg.Redis.Addr = p.str("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = p.str("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = p.int("REDIS_DB", cfg.Redis.DB)

	cfg.Auth.JWTSecret = p.str("JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.Dispatch.ResponseWindow = p.duration("DISPATCH_RESPONSE_WINDOW", cfg.Dispatch.ResponseWindow)
	cfg.Dispatch.OperationTimeout = p.duration("DISPATCH_OPERATION_TIMEOUT", cfg.Dispatch.OperationTimeout)

	cfg.Delivery.RatePerKm = p.float("DELIVERY_RATE_PER_KM", cfg.Delivery.RatePerKm)
	cfg.Delivery.MaxCodeAttempts = p.int("DELIVERY_MAX_CODE_ATTEMPTS", cfg.Delivery.MaxCodeAttempts)
	cfg.Delivery.OperationTimeout = p.duration("DELIVERY_OPERATION_TIMEOUT", cfg.Delivery.OperationTimeout)

	cfg.Reaper.Interval = p.duration("REAPER_INTERVAL", cfg.Reaper.Interval)
	cfg.Reaper.StaleAfter = p.duration("REAPER_STALE_AFTER", cfg.Reaper.StaleAfter)

	cfg.RateLimit.Enabled = p.bool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Rate = p.float("RATE_LIMIT_RATE", cfg.RateLimit.Rate)
	cfg.RateLimit.Burst = p.int("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.RateLimit.TTL = p.duration("RATE_LIMIT_TTL", cfg.RateLimit.TTL)
	cfg.RateLimit.MaxBuckets = p.int("RATE_LIMIT_MAX_BUCKETS", cfg.RateLimit.MaxBuckets)

	if p.err != nil {
		return nil, p.err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := strconv.Atoi(c.DB.Port); err != nil {
		return fmt.Errorf("invalid POSTGRES_PORT %q: %w", c.DB.Port, err)
	}
	if c.Dispatch.ResponseWindow <= 0 {
		return fmt.Errorf("invalid dispatch response window: %s", c.Dispatch.ResponseWindow)
	}
	if c.Reaper.Interval <= 0 || c.Reaper.StaleAfter <= 0 {
		return fmt.Errorf("invalid reaper settings: interval=%s stale_after=%s", c.Reaper.Interval, c.Reaper.StaleAfter)
	}
	if c.Delivery.RatePerKm < 0 {
		return fmt.Errorf("invalid delivery rate per km: %v", c.Delivery.RatePerKm)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	return nil
}

// envParser reads typed variables and remembers the first parse error.
type envParser struct{ err error }

func (p *envParser) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *envParser) fail(key, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
}

func (p *envParser) str(key, def string) string {
	if v, ok := p.lookup(key); ok {
		return v
	}
	return def
}

func (p *envParser) int(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *envParser) float(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *envParser) bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *envParser) list(key string, def []string) []string {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
