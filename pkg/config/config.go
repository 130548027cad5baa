package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Scoring model selection modes.
const (
	ScoringModeHeuristic = "heuristic"
	ScoringModeModel     = "model"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Request       RequestConfig
	Matching      MatchingConfig
	Scoring       ScoringConfig
	Settlement    SettlementConfig
	Reputation    ReputationConfig
	Notifications NotificationsConfig
	Location      LocationConfig
	Cron          CronConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RequestConfig sets creation-time defaults for blood requests.
type RequestConfig struct {
	DefaultRadiusKm float64
	TTL             time.Duration
}

// MatchingConfig tunes the candidate ranking pipeline and offer lifecycle.
type MatchingConfig struct {
	MaxResults      int
	PoolMultiplier  int
	PoolCap         int
	AcceptThreshold float64
	ModelWeight     float64
	DistanceWeight  float64
	OfferTTL        time.Duration
	SweepInterval   time.Duration
	SweepBatchSize  int
}

// ScoringConfig selects the scoring strategy and configures remote inference.
type ScoringConfig struct {
	Mode     string
	ModelURL string
	Timeout  time.Duration
}

// SettlementConfig points at the chain gateway recording completed donations.
type SettlementConfig struct {
	GatewayURL    string
	Timeout       time.Duration
	RewardPerUnit int64
	ChainID       int64
	MaxRetries    int
	RetryDelay    time.Duration
}

// ReputationConfig governs feedback points and the inactivity decay job.
type ReputationConfig struct {
	DecayEnabled   bool
	DecayAfter     time.Duration
	DecayPoints    int64
	MilestoneEvery int64
}

// NotificationsConfig configures the fire-and-forget publisher.
type NotificationsConfig struct {
	ChannelPrefix string
	Workers       int
	BufferSize    int
}

// LocationConfig controls live-position retention in the location cache.
type LocationConfig struct {
	TTL time.Duration
}

// CronConfig guards the internal job-trigger endpoints.
type CronConfig struct {
	Secret string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Request = RequestConfig{
		DefaultRadiusKm: v.GetFloat64("REQUEST_DEFAULT_RADIUS_KM"),
		TTL:             parseDuration(v.GetString("REQUEST_TTL"), 24*time.Hour),
	}

	cfg.Matching = MatchingConfig{
		MaxResults:      v.GetInt("MATCHING_MAX_RESULTS"),
		PoolMultiplier:  v.GetInt("MATCHING_POOL_MULTIPLIER"),
		PoolCap:         v.GetInt("MATCHING_POOL_CAP"),
		AcceptThreshold: v.GetFloat64("MATCHING_ACCEPT_THRESHOLD"),
		ModelWeight:     v.GetFloat64("MATCHING_MODEL_WEIGHT"),
		DistanceWeight:  v.GetFloat64("MATCHING_DISTANCE_WEIGHT"),
		OfferTTL:        parseDuration(v.GetString("MATCHING_OFFER_TTL"), time.Hour),
		SweepInterval:   parseDuration(v.GetString("MATCHING_SWEEP_INTERVAL"), time.Minute),
		SweepBatchSize:  v.GetInt("MATCHING_SWEEP_BATCH_SIZE"),
	}

	cfg.Scoring = ScoringConfig{
		Mode:     v.GetString("SCORING_MODE"),
		ModelURL: v.GetString("SCORING_MODEL_URL"),
		Timeout:  parseDuration(v.GetString("SCORING_TIMEOUT"), 2*time.Second),
	}

	cfg.Settlement = SettlementConfig{
		GatewayURL:    v.GetString("SETTLEMENT_GATEWAY_URL"),
		Timeout:       parseDuration(v.GetString("SETTLEMENT_TIMEOUT"), 15*time.Second),
		RewardPerUnit: v.GetInt64("SETTLEMENT_REWARD_PER_UNIT"),
		ChainID:       v.GetInt64("SETTLEMENT_CHAIN_ID"),
		MaxRetries:    v.GetInt("SETTLEMENT_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("SETTLEMENT_RETRY_DELAY"), 30*time.Second),
	}

	cfg.Reputation = ReputationConfig{
		DecayEnabled:   v.GetBool("REPUTATION_DECAY_ENABLED"),
		DecayAfter:     parseDuration(v.GetString("REPUTATION_DECAY_AFTER"), 90*24*time.Hour),
		DecayPoints:    v.GetInt64("REPUTATION_DECAY_POINTS"),
		MilestoneEvery: v.GetInt64("REPUTATION_MILESTONE_EVERY"),
	}

	cfg.Notifications = NotificationsConfig{
		ChannelPrefix: v.GetString("NOTIFICATIONS_CHANNEL_PREFIX"),
		Workers:       v.GetInt("NOTIFICATIONS_WORKERS"),
		BufferSize:    v.GetInt("NOTIFICATIONS_BUFFER_SIZE"),
	}

	cfg.Location = LocationConfig{
		TTL: parseDuration(v.GetString("LOCATION_TTL"), 15*time.Minute),
	}

	cfg.Cron = CronConfig{Secret: v.GetString("CRON_SECRET")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bloodchain")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REQUEST_DEFAULT_RADIUS_KM", 50)
	v.SetDefault("REQUEST_TTL", "24h")

	v.SetDefault("MATCHING_MAX_RESULTS", 10)
	v.SetDefault("MATCHING_POOL_MULTIPLIER", 8)
	v.SetDefault("MATCHING_POOL_CAP", 100)
	v.SetDefault("MATCHING_ACCEPT_THRESHOLD", 0.65)
	v.SetDefault("MATCHING_MODEL_WEIGHT", 0.6)
	v.SetDefault("MATCHING_DISTANCE_WEIGHT", 0.4)
	v.SetDefault("MATCHING_OFFER_TTL", "1h")
	v.SetDefault("MATCHING_SWEEP_INTERVAL", "1m")
	v.SetDefault("MATCHING_SWEEP_BATCH_SIZE", 200)

	v.SetDefault("SCORING_MODE", ScoringModeHeuristic)
	v.SetDefault("SCORING_MODEL_URL", "")
	v.SetDefault("SCORING_TIMEOUT", "2s")

	v.SetDefault("SETTLEMENT_GATEWAY_URL", "http://localhost:8545/gateway")
	v.SetDefault("SETTLEMENT_TIMEOUT", "15s")
	v.SetDefault("SETTLEMENT_REWARD_PER_UNIT", 100)
	v.SetDefault("SETTLEMENT_CHAIN_ID", 137)
	v.SetDefault("SETTLEMENT_MAX_RETRIES", 3)
	v.SetDefault("SETTLEMENT_RETRY_DELAY", "30s")

	v.SetDefault("REPUTATION_DECAY_ENABLED", false)
	v.SetDefault("REPUTATION_DECAY_AFTER", "2160h")
	v.SetDefault("REPUTATION_DECAY_POINTS", 25)
	v.SetDefault("REPUTATION_MILESTONE_EVERY", 10)

	v.SetDefault("NOTIFICATIONS_CHANNEL_PREFIX", "notifications")
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_BUFFER_SIZE", 64)

	v.SetDefault("LOCATION_TTL", "15m")

	v.SetDefault("CRON_SECRET", "dev_cron_secret")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
