package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds cache settings. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DialogueConfig configures the dialogue engine client.
type DialogueConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MappingConfig configures the mapping engine client.
type MappingConfig struct {
	BaseURL  string
	Key      string
	Secret   string
	MapID    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// SpeechConfig configures text-to-speech.
type SpeechConfig struct {
	Enabled         bool
	BaseURL         string
	APIKey          string
	VoiceID         string
	Stability       float64
	SimilarityBoost float64
	Timeout         time.Duration
}

// NavigationConfig holds route and normalization behavior.
type NavigationConfig struct {
	DefaultStart      string
	RoundDistances    bool
	Accessible        bool
	MovementWriteMode string
	TurnTimeout       time.Duration
}

// ServiceConfig holds all configuration for the wayfinding service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	AllowedOrigins []string
	MigrationsDir  string
	DBConfig       DatabaseConfig
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	RedisConfig    RedisConfig
	Dialogue       DialogueConfig
	Mapping        MappingConfig
	Speech         SpeechConfig
	Navigation     NavigationConfig
}

const (
	MovementModePerStep = "per_step"
	MovementModeBatch   = "batch"
)

// Load reads configuration from WAYFINDER_* environment variables and an optional config file.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("WAYFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("wayfinder")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/wayfinder")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("migrations_dir", "migrations")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "wayfinding")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.token_ttl", "0s")

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_prefix", "wayfinder-")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("dialogue.base_url", "https://general-runtime.voiceflow.com")
	v.SetDefault("dialogue.timeout", "10s")

	v.SetDefault("mapping.base_url", "http://localhost:9000")
	v.SetDefault("mapping.timeout", "10s")
	v.SetDefault("mapping.cache_ttl", "5m")

	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.base_url", "https://api.elevenlabs.io")
	v.SetDefault("speech.stability", 0.0)
	v.SetDefault("speech.similarity_boost", 0.0)
	v.SetDefault("speech.timeout", "10s")

	v.SetDefault("nav.default_start", "RBC Oasis Tent")
	v.SetDefault("nav.round_distances", true)
	v.SetDefault("nav.accessible", true)
	v.SetDefault("nav.movement_write_mode", MovementModePerStep)
	v.SetDefault("nav.turn_timeout", "30s")
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	port := v.GetString("service_port")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	cfg := &ServiceConfig{
		Port:           port,
		AppEnv:         v.GetString("app_env"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),
		MigrationsDir:  v.GetString("migrations_dir"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		JWTConfig: JWTConfig{
			Secret:   v.GetString("jwt.secret"),
			TokenTTL: v.GetDuration("jwt.token_ttl"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("kafka.brokers")),
			GroupPrefix: v.GetString("kafka.group_prefix"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Dialogue: DialogueConfig{
			BaseURL: v.GetString("dialogue.base_url"),
			APIKey:  v.GetString("dialogue.api_key"),
			Timeout: v.GetDuration("dialogue.timeout"),
		},
		Mapping: MappingConfig{
			BaseURL:  v.GetString("mapping.base_url"),
			Key:      v.GetString("mapping.key"),
			Secret:   v.GetString("mapping.secret"),
			MapID:    v.GetString("mapping.map_id"),
			Timeout:  v.GetDuration("mapping.timeout"),
			CacheTTL: v.GetDuration("mapping.cache_ttl"),
		},
		Speech: SpeechConfig{
			Enabled:         v.GetBool("speech.enabled"),
			BaseURL:         v.GetString("speech.base_url"),
			APIKey:          v.GetString("speech.api_key"),
			VoiceID:         v.GetString("speech.voice_id"),
			Stability:       v.GetFloat64("speech.stability"),
			SimilarityBoost: v.GetFloat64("speech.similarity_boost"),
			Timeout:         v.GetDuration("speech.timeout"),
		},
		Navigation: NavigationConfig{
			DefaultStart:      v.GetString("nav.default_start"),
			RoundDistances:    v.GetBool("nav.round_distances"),
			Accessible:        v.GetBool("nav.accessible"),
			MovementWriteMode: v.GetString("nav.movement_write_mode"),
			TurnTimeout:       v.GetDuration("nav.turn_timeout"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("WAYFINDER_JWT_SECRET is required")
	}
	if c.Mapping.MapID == "" {
		return fmt.Errorf("WAYFINDER_MAPPING_MAP_ID is required")
	}
	switch c.Navigation.MovementWriteMode {
	case MovementModePerStep, MovementModeBatch:
	default:
		return fmt.Errorf("unknown movement write mode %q", c.Navigation.MovementWriteMode)
	}
	if len(c.KafkaConfig.Brokers) == 0 {
		return fmt.Errorf("at least one kafka broker is required")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
