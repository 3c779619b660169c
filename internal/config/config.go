package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// RingTimeout bounds how long a call may stay ringing before it is
	// recorded as missed. Zero disables the timer.
	RingTimeout time.Duration `mapstructure:"ring_timeout" yaml:"ring_timeout"`

	// WSEventRateLimit caps inbound socket events per connection per minute.
	WSEventRateLimit int `mapstructure:"ws_event_rate_limit" yaml:"ws_event_rate_limit"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "huddle.db",
		JWTSecret:         "dev-secret-change-me",
		JWTIssuer:         "huddle-server",
		JWTAudience:       "huddle-client",
		RingTimeout:       45 * time.Second,
		WSEventRateLimit:  300,
		LogLevel:          "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.RingTimeout != 0 {
		c.RingTimeout = other.RingTimeout
	}
	if other.WSEventRateLimit != 0 {
		c.WSEventRateLimit = other.WSEventRateLimit
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
