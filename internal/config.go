package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Approval      ApprovalConfig      `mapstructure:"approval"`
	Aging         AgingConfig         `mapstructure:"aging"`
	Variance      VarianceConfig      `mapstructure:"variance"`
	Forecast      ForecastConfig      `mapstructure:"forecast"`
	Notification  NotificationConfig  `mapstructure:"notification"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	// RateLimitPerMinute caps API requests per client IP. Zero disables it.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"min=0"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" validate:"required"`
}

// SecurityConfig holds the shared secret of the identity provider that signs
// actor tokens. This service never issues tokens.
type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	Issuer    string `mapstructure:"issuer"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Env    string `mapstructure:"env" validate:"omitempty,oneof=development production"`
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

type ApprovalConfig struct {
	// DefaultThreshold applies to expense requests filed without a category.
	DefaultThreshold int64 `mapstructure:"default_threshold" validate:"min=0"`
}

const (
	AmountBasisAmount = "amount"
	AmountBasisTotal  = "total_amount"
)

type AgingConfig struct {
	AmountBasis string `mapstructure:"amount_basis" validate:"omitempty,oneof=amount total_amount"`
	TrendMonths int    `mapstructure:"trend_months" validate:"min=0,max=36"`
}

const (
	ActualsSourceOrderRevenue       = "order_revenue"
	ActualsSourceDepartmentExpenses = "department_expenses"
)

type VarianceConfig struct {
	ActualsSource string `mapstructure:"actuals_source" validate:"omitempty,oneof=order_revenue department_expenses"`
}

type ForecastConfig struct {
	ExpenseRatio float64 `mapstructure:"expense_ratio" validate:"min=0,max=1"`
	MonthsBack   int     `mapstructure:"months_back" validate:"min=0,max=24"`
	MonthsAhead  int     `mapstructure:"months_ahead" validate:"min=0,max=24"`
}

type NotificationConfig struct {
	WebhookURL string        `mapstructure:"webhook_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxWorkers int           `mapstructure:"max_workers" validate:"min=0,max=64"`
	QueueSize  int           `mapstructure:"queue_size" validate:"min=0"`
}

// ApplyDefaults fills values that the config file may leave out.
func (c *Config) ApplyDefaults() {
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
	if c.Aging.AmountBasis == "" {
		c.Aging.AmountBasis = AmountBasisAmount
	}
	if c.Aging.TrendMonths == 0 {
		c.Aging.TrendMonths = 6
	}
	if c.Variance.ActualsSource == "" {
		c.Variance.ActualsSource = ActualsSourceOrderRevenue
	}
	if c.Forecast.ExpenseRatio == 0 {
		c.Forecast.ExpenseRatio = 0.65
	}
	if c.Forecast.MonthsBack == 0 {
		c.Forecast.MonthsBack = 3
	}
	if c.Forecast.MonthsAhead == 0 {
		c.Forecast.MonthsAhead = 6
	}
	if c.Notification.Timeout == 0 {
		c.Notification.Timeout = 5 * time.Second
	}
	if c.Notification.MaxWorkers == 0 {
		c.Notification.MaxWorkers = 4
	}
	if c.Notification.QueueSize == 0 {
		c.Notification.QueueSize = 100
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		errs = append(errs, fmt.Sprintf("config: %v", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}
