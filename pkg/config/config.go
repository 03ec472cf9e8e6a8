package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Jobs      JobsConfig
}

type DatabaseConfig struct {
	Enabled      bool
	AutoMigrate  bool
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
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	KeyPrefix   string
	CacheTTL    time.Duration
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig holds the default search parameters and the hard ceilings
// applied to caller supplied values.
type SchedulerConfig struct {
	PopulationSize    int
	Generations       int
	MutationRate      float64
	CrossoverRate     float64
	ElitismCount      int
	TournamentSize    int
	Timeout           time.Duration
	MaxPopulationSize int
	MaxGenerations    int
}

// JobsConfig configures asynchronous generation.
type JobsConfig struct {
	Workers   int
	Retries   int
	ResultTTL time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("ENABLE_DATABASE"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
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
		Enabled:     v.GetBool("ENABLE_CACHE"),
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 5*time.Second),
		KeyPrefix:   v.GetString("REDIS_KEY_PREFIX"),
		CacheTTL:    parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		MaxAge:         parseDuration(v.GetString("CORS_MAX_AGE"), 10*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		PopulationSize:    v.GetInt("SCHEDULER_POPULATION_SIZE"),
		Generations:       v.GetInt("SCHEDULER_GENERATIONS"),
		MutationRate:      v.GetFloat64("SCHEDULER_MUTATION_RATE"),
		CrossoverRate:     v.GetFloat64("SCHEDULER_CROSSOVER_RATE"),
		ElitismCount:      v.GetInt("SCHEDULER_ELITISM_COUNT"),
		TournamentSize:    v.GetInt("SCHEDULER_TOURNAMENT_SIZE"),
		Timeout:           parseDuration(v.GetString("SCHEDULER_TIMEOUT"), 30*time.Second),
		MaxPopulationSize: v.GetInt("SCHEDULER_MAX_POPULATION"),
		MaxGenerations:    v.GetInt("SCHEDULER_MAX_GENERATIONS"),
	}

	cfg.Jobs = JobsConfig{
		Workers:   v.GetInt("JOBS_WORKERS"),
		Retries:   v.GetInt("JOBS_RETRIES"),
		ResultTTL: parseDuration(v.GetString("JOBS_RESULT_TTL"), time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ENABLE_DATABASE", false)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_KEY_PREFIX", "tga:")
	v.SetDefault("TIMETABLE_CACHE_TTL", "10m")

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_MAX_AGE", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_POPULATION_SIZE", 50)
	v.SetDefault("SCHEDULER_GENERATIONS", 100)
	v.SetDefault("SCHEDULER_MUTATION_RATE", 0.1)
	v.SetDefault("SCHEDULER_CROSSOVER_RATE", 0.8)
	v.SetDefault("SCHEDULER_ELITISM_COUNT", 5)
	v.SetDefault("SCHEDULER_TOURNAMENT_SIZE", 3)
	v.SetDefault("SCHEDULER_TIMEOUT", "30s")
	v.SetDefault("SCHEDULER_MAX_POPULATION", 500)
	v.SetDefault("SCHEDULER_MAX_GENERATIONS", 2000)

	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_RETRIES", 0)
	v.SetDefault("JOBS_RESULT_TTL", "1h")
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
