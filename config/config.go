package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sheets  SheetsConfig  `mapstructure:"sheets"`
	Google  GoogleConfig  `mapstructure:"google"`
	CheckIn CheckInConfig `mapstructure:"checkin"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Lock    LockConfig    `mapstructure:"lock"`
	Events  EventsConfig  `mapstructure:"events"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	CORS           CORSConfig `mapstructure:"cors"`
	RateLimit      int        `mapstructure:"rate_limit"`
	MaxConnections int        `mapstructure:"max_connections"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type SheetsConfig struct {
	URL             string        `mapstructure:"url"`
	CodeRange       string        `mapstructure:"code_range"`
	AttendanceRange string        `mapstructure:"attendance_range"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type GoogleConfig struct {
	Credentials string `mapstructure:"credentials"`
	Tokens      string `mapstructure:"tokens"`
	CallbackURL string `mapstructure:"callback_url"`
}

type CheckInConfig struct {
	Domain string `mapstructure:"domain"`
}

// AuthConfig secures the code generation endpoint with an HS256 bearer token when the secret is set.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LockConfig selects a PostgreSQL advisory lock for the attendance table when the database URL is
// set. The default is an in-process lock.
type LockConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
}

type EventsConfig struct {
	NatsURL   string `mapstructure:"nats_url"`
	NatsToken string `mapstructure:"nats_token"`
	Subject   string `mapstructure:"subject"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const ENV_PREFIX = "CHECKIN"

var rangeRegex = regexp.MustCompile(`^(?:(.+?)!)?([a-zA-Z]+)([0-9]+):([a-zA-Z]+)([0-9]+)?$`)

// Load reads the configuration from the defaults, the optional YAML file and the CHECKIN_*
// environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.max_connections", 256)

	v.SetDefault("sheets.url", "")
	v.SetDefault("sheets.code_range", "A2:B2")
	v.SetDefault("sheets.attendance_range", "A5:C")
	v.SetDefault("sheets.timeout", "10s")

	v.SetDefault("google.credentials", "")
	v.SetDefault("google.tokens", "")
	v.SetDefault("google.callback_url", "http://localhost:8080/auth/google/callback")

	v.SetDefault("checkin.domain", "sjsu.edu")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("lock.database_url", "")

	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.nats_token", "")
	v.SetDefault("events.subject", "checkin")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("checkin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading configuration (%w)", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration (%w)", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid configuration: server.port must be in the range 1-65535")
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid configuration: server.rate_limit may not be negative")
	}

	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("invalid configuration: server.max_connections may not be negative")
	}

	if !rangeRegex.MatchString(c.Sheets.CodeRange) {
		return fmt.Errorf("invalid configuration: sheets.code_range '%v' is not a valid range", c.Sheets.CodeRange)
	}

	if !rangeRegex.MatchString(c.Sheets.AttendanceRange) {
		return fmt.Errorf("invalid configuration: sheets.attendance_range '%v' is not a valid range", c.Sheets.AttendanceRange)
	}

	if c.Sheets.Timeout <= 0 {
		return fmt.Errorf("invalid configuration: sheets.timeout must be greater than zero")
	}

	if domain := strings.TrimPrefix(strings.TrimSpace(c.CheckIn.Domain), "@"); domain == "" || strings.Contains(domain, "@") {
		return fmt.Errorf("invalid configuration: checkin.domain '%v' is not a valid email domain", c.CheckIn.Domain)
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid configuration: auth.jwt_secret must be at least 16 characters")
	}

	if c.Google.CallbackURL != "" {
		if u, err := url.Parse(c.Google.CallbackURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid configuration: google.callback_url '%v' is not a valid URL", c.Google.CallbackURL)
		}
	}

	return nil
}
