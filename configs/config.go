package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
		// RequestTimeout bounds the whole order saga: three sequential
		// external calls, so this is deliberately generous.
		RequestTimeout time.Duration `koanf:"request_timeout"`
	} `koanf:"http"`

	Payment struct {
		APIBase   string        `koanf:"api_base"`
		SecretKey string        `koanf:"secret_key"`
		Timeout   time.Duration `koanf:"timeout"`
	} `koanf:"payment"`

	Shipping struct {
		APIBase string        `koanf:"api_base"`
		Token   string        `koanf:"token"`
		Mode    string        `koanf:"mode"` // test | live
		Timeout time.Duration `koanf:"timeout"`
		// Requests per second against the provider account.
		RateLimit float64 `koanf:"rate_limit"`

		ShipFrom struct {
			Name    string `koanf:"name"`
			Street1 string `koanf:"street1"`
			City    string `koanf:"city"`
			State   string `koanf:"state"`
			Zip     string `koanf:"zip"`
			Country string `koanf:"country"`
			Phone   string `koanf:"phone"`
			Email   string `koanf:"email"`
		} `koanf:"ship_from"`
	} `koanf:"shipping"`

	Content struct {
		ProjectID  string        `koanf:"project_id"`
		Dataset    string        `koanf:"dataset"`
		APIVersion string        `koanf:"api_version"`
		ReadToken  string        `koanf:"read_token"`
		WriteToken string        `koanf:"write_token"`
		Timeout    time.Duration `koanf:"timeout"`
	} `koanf:"content"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Rabbit struct {
		URL string `koanf:"url"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers       []string `koanf:"brokers"`
		TopicTracking string   `koanf:"topic_tracking"`
		GroupID       string   `koanf:"group_id"`
	} `koanf:"kafka"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix STOREFRONT_, nested with __)
	// e.g. STOREFRONT_PAYMENT__SECRET_KEY, STOREFRONT_CONTENT__WRITE_TOKEN
	if err := k.Load(env.Provider("STOREFRONT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "STOREFRONT_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on deployment defects: a missing collaborator
// credential must never surface mid-saga as a confusing 500.
func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Payment.SecretKey == "" {
		return fmt.Errorf("payment.secret_key required")
	}
	if c.Shipping.Token == "" {
		return fmt.Errorf("shipping.token required")
	}
	if c.Content.ProjectID == "" || c.Content.Dataset == "" {
		return fmt.Errorf("content.project_id and content.dataset required")
	}
	if c.Content.WriteToken == "" {
		return fmt.Errorf("content.write_token required (distinct from read token)")
	}
	if c.Shipping.ShipFrom.Street1 == "" || c.Shipping.ShipFrom.Zip == "" {
		return fmt.Errorf("shipping.ship_from address required for rate quoting")
	}
	return nil
}
