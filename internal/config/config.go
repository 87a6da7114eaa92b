package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	ModelStore ModelStoreConfig
	Forecast   ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	PortfolioTTLSeconds int
}

// ModelStoreConfig selects and configures the model artifact backend.
// Backend is one of: memory, file, redis, s3.
type ModelStoreConfig struct {
	Backend     string
	Dir         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Prefix    string
	S3UseSSL    bool
}

type ForecastConfig struct {
	LookbackDays     int
	MinHistoryDays   int
	DefaultHorizon   int
	MaxCandidates    int
	TopN             int
	Parallelism      int
	ModelMaxAgeHours int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "demandcast")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_PORTFOLIO_TTL_SECONDS", 300)
		viper.SetDefault("MODEL_STORE_BACKEND", "file")
		viper.SetDefault("MODEL_STORE_DIR", "./data/models")
		viper.SetDefault("MODEL_S3_ENDPOINT", "")
		viper.SetDefault("MODEL_S3_ACCESS_KEY", "")
		viper.SetDefault("MODEL_S3_SECRET_KEY", "")
		viper.SetDefault("MODEL_S3_BUCKET", "")
		viper.SetDefault("MODEL_S3_PREFIX", "models")
		viper.SetDefault("MODEL_S3_USE_SSL", true)
		viper.SetDefault("FORECAST_LOOKBACK_DAYS", 90)
		viper.SetDefault("FORECAST_MIN_HISTORY_DAYS", 14)
		viper.SetDefault("FORECAST_DEFAULT_HORIZON", 30)
		viper.SetDefault("FORECAST_MAX_CANDIDATES", 50)
		viper.SetDefault("FORECAST_TOP_N", 10)
		viper.SetDefault("FORECAST_PARALLELISM", 4)
		viper.SetDefault("FORECAST_MODEL_MAX_AGE_HOURS", 168)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				PortfolioTTLSeconds: viper.GetInt("CACHE_PORTFOLIO_TTL_SECONDS"),
			},
			ModelStore: ModelStoreConfig{
				Backend:     viper.GetString("MODEL_STORE_BACKEND"),
				Dir:         viper.GetString("MODEL_STORE_DIR"),
				S3Endpoint:  viper.GetString("MODEL_S3_ENDPOINT"),
				S3AccessKey: viper.GetString("MODEL_S3_ACCESS_KEY"),
				S3SecretKey: viper.GetString("MODEL_S3_SECRET_KEY"),
				S3Bucket:    viper.GetString("MODEL_S3_BUCKET"),
				S3Prefix:    viper.GetString("MODEL_S3_PREFIX"),
				S3UseSSL:    viper.GetBool("MODEL_S3_USE_SSL"),
			},
			Forecast: ForecastConfig{
				LookbackDays:     viper.GetInt("FORECAST_LOOKBACK_DAYS"),
				MinHistoryDays:   viper.GetInt("FORECAST_MIN_HISTORY_DAYS"),
				DefaultHorizon:   viper.GetInt("FORECAST_DEFAULT_HORIZON"),
				MaxCandidates:    viper.GetInt("FORECAST_MAX_CANDIDATES"),
				TopN:             viper.GetInt("FORECAST_TOP_N"),
				Parallelism:      viper.GetInt("FORECAST_PARALLELISM"),
				ModelMaxAgeHours: viper.GetInt("FORECAST_MODEL_MAX_AGE_HOURS"),
			},
		}
	})

	return instance
}
