package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	// Mode is "once" (single run then exit) or "serve" (minute scheduler + HTTP).
	Mode string `yaml:"mode" default:"once" validate:"oneof=once serve"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		// TriggerBurst/TriggerRefill throttle POST /api/runs per client.
		TriggerBurst  float64 `yaml:"trigger_burst" default:"3"`
		TriggerRefill float64 `yaml:"trigger_refill_per_sec" default:"0.05"`
	} `yaml:"server"`

	Pipeline struct {
		MessageLimit       int           `yaml:"message_limit" default:"20" validate:"gte=0"`
		MessageRateLimit   int           `yaml:"message_rate_limit" default:"20" validate:"gt=0"`
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks" default:"50" validate:"gt=0"`
		MaxWorkers         int           `yaml:"max_workers" default:"15" validate:"gt=0"`
		ManualRun          bool          `yaml:"manual_run"`
		Intervals          []string      `yaml:"intervals" validate:"dive,oneof=5 15 30 60 240 720"`
		Exclude            []string      `yaml:"exclude"`
		FetchAttempts      int           `yaml:"fetch_attempts" default:"3" validate:"gt=0"`
		FetchDelay         time.Duration `yaml:"fetch_delay" default:"1s"`
		SendAttempts       int           `yaml:"send_attempts" default:"5" validate:"gt=0"`
		SendBaseDelay      time.Duration `yaml:"send_base_delay" default:"1s"`
	} `yaml:"pipeline"`

	Analysis struct {
		BarCount     int      `yaml:"bar_count" default:"200" validate:"gte=2"`
		Rules        []string `yaml:"rules" validate:"dive,oneof=stoch_macd engulfing hammer"`
		KPeriod      int      `yaml:"k_period" default:"14" validate:"gt=0"`
		DPeriod      int      `yaml:"d_period" default:"3" validate:"gt=0"`
		FastPeriod   int      `yaml:"fast_period" default:"12" validate:"gt=0"`
		SlowPeriod   int      `yaml:"slow_period" default:"26" validate:"gtfield=FastPeriod"`
		SignalPeriod int      `yaml:"signal_period" default:"9" validate:"gt=0"`
		Overbought   float64  `yaml:"overbought" default:"90"`
		Oversold     float64  `yaml:"oversold" default:"10" validate:"ltfield=Overbought"`
	} `yaml:"analysis"`

	Bybit struct {
		BaseURL     string        `yaml:"base_url" default:"https://api.bybit.com"`
		Timeout     time.Duration `yaml:"timeout" default:"10s"`
		UniverseTTL time.Duration `yaml:"universe_ttl" default:"10m"`
	} `yaml:"bybit"`

	Notifier struct {
		Type     string `yaml:"type" default:"telegram" validate:"oneof=telegram kafka log"`
		Telegram struct {
			BaseURL  string        `yaml:"base_url" default:"https://api.telegram.org"`
			BotToken string        `yaml:"bot_token"`
			ChatID   string        `yaml:"chat_id"`
			Timeout  time.Duration `yaml:"timeout" default:"10s"`
		} `yaml:"telegram"`
	} `yaml:"notifier"`

	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"finsignal.notifications"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"finsignal"`
		PoolSize int    `yaml:"pool_size" default:"4" validate:"gt=0"`
	} `yaml:"redis"`
}

var validate = validator.New()

// ErrMissingCredentials is returned by ValidateCredentials when the notifier cannot authenticate.
var ErrMissingCredentials = errors.New("missing notifier credentials")

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.applyListDefaults()
	return &c, nil
}

// Load reads and parses a YAML configuration file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// env-only deployments
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := getenv(key); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	str("APP_MODE", &c.Mode)
	str("NOTIFIER", &c.Notifier.Type)
	str("BOT_TOKEN", &c.Notifier.Telegram.BotToken)
	str("CHAT_ID", &c.Notifier.Telegram.ChatID)
	integer("MESSAGE_LIMIT", &c.Pipeline.MessageLimit)
	integer("MESSAGE_RATE_LIMIT", &c.Pipeline.MessageRateLimit)
	integer("MAX_CONCURRENT_TASKS", &c.Pipeline.MaxConcurrentTasks)
	integer("MAX_WORKERS", &c.Pipeline.MaxWorkers)
	list("INTERVALS", &c.Pipeline.Intervals)
	if v := getenv("MANUAL_RUN"); v != "" {
		c.Pipeline.ManualRun = parseBool(v)
	}

	integer("BAR_COUNT", &c.Analysis.BarCount)
	list("RULES", &c.Analysis.Rules)
	integer("K_PERIOD", &c.Analysis.KPeriod)
	integer("D_PERIOD", &c.Analysis.DPeriod)
	integer("FAST_PERIOD", &c.Analysis.FastPeriod)
	integer("SLOW_PERIOD", &c.Analysis.SlowPeriod)
	integer("SIGNAL_PERIOD", &c.Analysis.SignalPeriod)
	float("OVERBOUGHT", &c.Analysis.Overbought)
	float("OVERSOLD", &c.Analysis.Oversold)

	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}

	return errors.Join(errs...)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Notifier.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required for the kafka notifier")
	}
	return nil
}

// ValidateCredentials reports whether the configured notifier has what it needs to send.
func (c *Config) ValidateCredentials() error {
	if c.Notifier.Type != "telegram" {
		return nil
	}
	var missing []string
	if c.Notifier.Telegram.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.Notifier.Telegram.ChatID == "" {
		missing = append(missing, "CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: telegram needs %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) applyListDefaults() {
	if len(c.Pipeline.Intervals) == 0 {
		c.Pipeline.Intervals = []string{"5", "15", "30", "60", "240", "720"}
	}
	if len(c.Pipeline.Exclude) == 0 {
		c.Pipeline.Exclude = []string{"USDCUSDT"}
	}
	if len(c.Analysis.Rules) == 0 {
		c.Analysis.Rules = []string{"stoch_macd"}
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
