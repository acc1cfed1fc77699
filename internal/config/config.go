package config

import "github.com/kelseyhightower/envconfig"

type DispatcherConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// Static shared secret for the trigger endpoint.
	DispatchToken string `envconfig:"DISPATCH_TOKEN" required:"true"`

	// Phone normalization and recurrence arithmetic defaults.
	DefaultCountryCode string `envconfig:"DEFAULT_COUNTRY_CODE" default:"972"`
	BusinessTimezone   string `envconfig:"BUSINESS_TIMEZONE" default:"Asia/Jerusalem"`

	// Provider pacing, shared across all sends of an invocation.
	SendRPS   float64 `envconfig:"SEND_RPS" default:"5"`
	SendBurst int     `envconfig:"SEND_BURST" default:"10"`

	ProviderTimeoutSeconds int `envconfig:"PROVIDER_TIMEOUT_SECONDS" default:"15"`

	// Postgres pool tuning (passed through to pgxpool).
	DBPoolMaxConns          int32  `envconfig:"DB_POOL_MAX_CONNS" default:"8"`
	DBPoolMinConns          int32  `envconfig:"DB_POOL_MIN_CONNS" default:"0"`
	DBPoolMaxConnLifetime   string `envconfig:"DB_POOL_MAX_CONN_LIFETIME"`
	DBPoolMaxConnIdleTime   string `envconfig:"DB_POOL_MAX_CONN_IDLE_TIME"`
	DBPoolHealthCheckPeriod string `envconfig:"DB_POOL_HEALTH_CHECK_PERIOD"`
}

func LoadDispatcher() DispatcherConfig {
	var cfg DispatcherConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}
