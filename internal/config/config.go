package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	ServerPort  int    `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTAlgorithm    string        `mapstructure:"JWT_ALGORITHM"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	ClockSkew       time.Duration `mapstructure:"CLOCK_SKEW"`
	BcryptCost      int           `mapstructure:"BCRYPT_COST"`

	RedisURL       string        `mapstructure:"REDIS_URL"`
	StorageTimeout time.Duration `mapstructure:"STORAGE_TIMEOUT"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`

	ESURL      string `mapstructure:"ES_URL"`
	ESUser     string `mapstructure:"ES_USER"`
	ESPassword string `mapstructure:"ES_PASSWORD"`
	ESIndex    string `mapstructure:"ES_INDEX"`
}

var keys = []string{
	"SERVICE_NAME", "SERVER_PORT", "LOG_LEVEL",
	"DATABASE_URL",
	"JWT_SECRET", "JWT_ALGORITHM", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "CLOCK_SKEW", "BCRYPT_COST",
	"REDIS_URL", "STORAGE_TIMEOUT",
	"KAFKA_BROKERS",
	"ES_URL", "ES_USER", "ES_PASSWORD", "ES_INDEX",
}

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "book_api")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("CLOCK_SKEW", "0s")
	v.SetDefault("BCRYPT_COST", 0)
	v.SetDefault("STORAGE_TIMEOUT", "3s")
	v.SetDefault("ES_INDEX", "books")
}

// Load reads .env (if present), the optional config file and the environment, in
// increasing order of precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.JWTAlgorithm = strings.ToUpper(cfg.JWTAlgorithm)

	return &cfg, nil
}

// Validate checks the settings needed to serve traffic.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env DATABASE_URL"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("missing required env JWT_SECRET"))
	}
	if c.RedisURL == "" {
		errs = append(errs, errors.New("missing required env REDIS_URL"))
	}
	if !supportedAlgorithms[c.JWTAlgorithm] {
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.ClockSkew < 0 {
		errs = append(errs, errors.New("CLOCK_SKEW must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) Brokers() []string {
	return CSV(c.KafkaBrokers)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String masks secrets.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("service=%s port=%d log_level=%s ", c.ServiceName, c.ServerPort, c.LogLevel))
	sb.WriteString(fmt.Sprintf("jwt_alg=%s access_ttl=%s refresh_ttl=%s skew=%s ", c.JWTAlgorithm, c.AccessTokenTTL, c.RefreshTokenTTL, c.ClockSkew))
	if c.JWTSecret != "" {
		sb.WriteString("jwt_secret=******** ")
	} else {
		sb.WriteString("jwt_secret=(empty) ")
	}
	sb.WriteString(fmt.Sprintf("kafka=%q es=%q es_index=%s", c.KafkaBrokers, c.ESURL, c.ESIndex))
	return sb.String()
}
