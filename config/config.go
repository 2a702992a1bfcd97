package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the backend. Loaded once at startup and
// passed by reference to the components that need it.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	AI        AIConfig        `mapstructure:"ai"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains service metadata and listen settings.
type GeneralConfig struct {
	ProjectName string `mapstructure:"project_name"`
	Version     string `mapstructure:"version"`
	Description string `mapstructure:"description"`
	Listen      string `mapstructure:"listen"`
	Debug       bool   `mapstructure:"debug"`
}

// CacheConfig configures the two-tier response cache.
type CacheConfig struct {
	RedisHost     string        `mapstructure:"redis_host"`
	RedisPort     string        `mapstructure:"redis_port"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	ResponseTTL   time.Duration `mapstructure:"response_ttl"`
	RecsTTL       time.Duration `mapstructure:"recommendations_ttl"`
}

// RateLimitConfig bounds call rates of the guarded routes. Each window is
// global per route, not per caller.
type RateLimitConfig struct {
	ChatMaxCalls     int           `mapstructure:"chat_max_calls"`
	ChatWindow       time.Duration `mapstructure:"chat_window"`
	ProblemsMaxCalls int           `mapstructure:"problems_max_calls"`
	ProblemsWindow   time.Duration `mapstructure:"problems_window"`
}

// AIConfig paces the simulated producers. The delays imitate incremental
// generation and are not a rate-control mechanism.
type AIConfig struct {
	ResponseDelay      time.Duration `mapstructure:"response_delay"`
	TokenDelay         time.Duration `mapstructure:"token_delay"`
	ChunkDelay         time.Duration `mapstructure:"chunk_delay"`
	MotivationInterval time.Duration `mapstructure:"motivation_interval"`
	MotivationDuration time.Duration `mapstructure:"motivation_duration"`
	TrainBatchSize     int           `mapstructure:"train_batch_size"`
	TrainMaxAttempts   int           `mapstructure:"train_max_attempts"`
	TrainRetryDelay    time.Duration `mapstructure:"train_retry_delay"`
}

// StorageConfig locates the embedded catalog database.
type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RedisAddr joins host and port for the go-redis client.
func (c CacheConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func setDefaults() {
	viper.SetDefault("general.project_name", "Scalable AI Backend")
	viper.SetDefault("general.version", "1.0.0")
	viper.SetDefault("general.description", "Advanced AI backend with LeetCode problem training")
	viper.SetDefault("general.listen", ":8000")
	viper.SetDefault("general.debug", false)

	viper.SetDefault("cache.redis_host", "localhost")
	viper.SetDefault("cache.redis_port", "6379")
	viper.SetDefault("cache.redis_db", 0)
	viper.SetDefault("cache.dial_timeout", 5*time.Second)
	viper.SetDefault("cache.default_ttl", time.Hour)
	viper.SetDefault("cache.response_ttl", 30*time.Minute)
	viper.SetDefault("cache.recommendations_ttl", time.Hour)

	viper.SetDefault("rate_limit.chat_max_calls", 50)
	viper.SetDefault("rate_limit.chat_window", 60*time.Second)
	viper.SetDefault("rate_limit.problems_max_calls", 100)
	viper.SetDefault("rate_limit.problems_window", 60*time.Second)

	viper.SetDefault("ai.response_delay", 500*time.Millisecond)
	viper.SetDefault("ai.token_delay", 50*time.Millisecond)
	viper.SetDefault("ai.chunk_delay", 200*time.Millisecond)
	viper.SetDefault("ai.motivation_interval", 5*time.Second)
	viper.SetDefault("ai.motivation_duration", 30*time.Second)
	viper.SetDefault("ai.train_batch_size", 32)
	viper.SetDefault("ai.train_max_attempts", 3)
	viper.SetDefault("ai.train_retry_delay", time.Second)

	viper.SetDefault("storage.sqlite_path", "codecoach.db")
}

// LoadConfig reads configuration from an optional YAML file plus CODECOACH_*
// environment variables. A missing config file is fine; defaults apply.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CODECOACH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return &config
}
