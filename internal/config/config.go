// Package config carrega a configuração da API a partir de variáveis de ambiente.
// Um arquivo .env, se existir, é lido antes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Config reúne todas as configurações da aplicação.
type Config struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`

	// Armazenamento
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`
	DataFile      string `env:"DATA_FILE" envDefault:"./data/licenses.json"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"./sqlite-database.db"`

	// Stripe
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID       string `env:"STRIPE_PRICE_ID"`
	CheckoutSuccessURL  string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}"`
	CheckoutCancelURL   string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:3000/cancel"`

	// Validade de uma licença Pro depois do pagamento.
	LicenseDuration time.Duration `env:"LICENSE_DURATION" envDefault:"8760h"`

	// E-mail de entrega da licença. Sem SMTP_HOST os e-mails só vão para o log.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"licenses@floatingnotes.app"`
}

// Load lê o .env (opcional) e as variáveis de ambiente.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("falha ao carregar %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("falha ao ler configuração: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifica combinações inválidas que o parser não detecta.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("STORAGE_DRIVER inválido: %q", c.StorageDriver)
	}
	if c.LicenseDuration <= 0 {
		return errors.New("LICENSE_DURATION deve ser positivo")
	}
	return nil
}

// Addr devolve o endereço de escuta do servidor HTTP.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel converte LOG_LEVEL para slog.Level. Valores desconhecidos viram info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StripeEnabled informa se há credenciais para criar sessões de checkout.
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != "" && c.StripePriceID != ""
}

// WebhookEnabled informa se os eventos da Stripe podem ser verificados.
func (c *Config) WebhookEnabled() bool {
	return c.StripeWebhookSecret != ""
}
