// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Cache       CacheConfig
	Importer    ImporterConfig
	Export      ExportConfig
	ObjectStore ObjectStoreConfig
	Drive       DriveConfig
	Notify      NotifyConfig
	Scheduler   SchedulerConfig
	Analytics   AnalyticsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// StoreConfig selects and configures the order store backend. Driver is
// one of "postgres", "mongo" or "csv".
type StoreConfig struct {
	Driver   string
	Postgres PostgresConfig
	MongoURI string
	MongoDB  string
	CSVPath  string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	InsightsTTLSeconds int
}

type ImporterConfig struct {
	UploadDir   string
	MappingFile string
}

type ExportConfig struct {
	Dir string
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
	PollSeconds     int
}

type NotifyConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

type SchedulerConfig struct {
	Enabled      bool
	InsightsCron string
}

type AnalyticsConfig struct {
	AnomalyWarnThreshold float64
	ForecastMonths       int
	DemandDaysAhead      int
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
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("STORE_DRIVER", "postgres")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "requiva")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
		viper.SetDefault("MONGO_DB", "requiva")
		viper.SetDefault("CSV_STORE_PATH", "./data/orders.csv")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_INSIGHTS_TTL_SECONDS", 300)
		viper.SetDefault("IMPORT_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("IMPORT_MAPPING_FILE", "")
		viper.SetDefault("EXPORT_DIR", "./data/exports")
		viper.SetDefault("OBJECT_STORE_ENDPOINT", "")
		viper.SetDefault("OBJECT_STORE_ACCESS_KEY", "")
		viper.SetDefault("OBJECT_STORE_SECRET_KEY", "")
		viper.SetDefault("OBJECT_STORE_BUCKET", "requiva-exports")
		viper.SetDefault("OBJECT_STORE_USE_SSL", true)
		viper.SetDefault("DRIVE_CREDENTIALS_FILE", "")
		viper.SetDefault("DRIVE_FOLDER_ID", "")
		viper.SetDefault("DRIVE_POLL_SECONDS", 300)
		viper.SetDefault("NOTIFY_WEBHOOK_URL", "")
		viper.SetDefault("NOTIFY_TIMEOUT_SECONDS", 10)
		viper.SetDefault("SCHEDULE_ENABLED", false)
		viper.SetDefault("SCHEDULE_INSIGHTS_CRON", "0 7 * * *")
		viper.SetDefault("ANALYTICS_ANOMALY_WARN_THRESHOLD", 0.7)
		viper.SetDefault("ANALYTICS_FORECAST_MONTHS", 3)
		viper.SetDefault("ANALYTICS_DEMAND_DAYS_AHEAD", 90)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure working directories exist
		ensureDir(viper.GetString("IMPORT_UPLOAD_DIR"))
		ensureDir(viper.GetString("EXPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Store: StoreConfig{
				Driver: viper.GetString("STORE_DRIVER"),
				Postgres: PostgresConfig{
					Host:     viper.GetString("DB_HOST"),
					Port:     viper.GetString("DB_PORT"),
					User:     viper.GetString("DB_USER"),
					Password: viper.GetString("DB_PASSWORD"),
					DBName:   viper.GetString("DB_NAME"),
					SSLMode:  viper.GetString("DB_SSLMODE"),
				},
				MongoURI: viper.GetString("MONGO_URI"),
				MongoDB:  viper.GetString("MONGO_DB"),
				CSVPath:  viper.GetString("CSV_STORE_PATH"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				InsightsTTLSeconds: viper.GetInt("CACHE_INSIGHTS_TTL_SECONDS"),
			},
			Importer: ImporterConfig{
				UploadDir:   viper.GetString("IMPORT_UPLOAD_DIR"),
				MappingFile: viper.GetString("IMPORT_MAPPING_FILE"),
			},
			Export: ExportConfig{
				Dir: viper.GetString("EXPORT_DIR"),
			},
			ObjectStore: ObjectStoreConfig{
				Endpoint:  viper.GetString("OBJECT_STORE_ENDPOINT"),
				AccessKey: viper.GetString("OBJECT_STORE_ACCESS_KEY"),
				SecretKey: viper.GetString("OBJECT_STORE_SECRET_KEY"),
				Bucket:    viper.GetString("OBJECT_STORE_BUCKET"),
				UseSSL:    viper.GetBool("OBJECT_STORE_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
				FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
				PollSeconds:     viper.GetInt("DRIVE_POLL_SECONDS"),
			},
			Notify: NotifyConfig{
				WebhookURL:     viper.GetString("NOTIFY_WEBHOOK_URL"),
				TimeoutSeconds: viper.GetInt("NOTIFY_TIMEOUT_SECONDS"),
			},
			Scheduler: SchedulerConfig{
				Enabled:      viper.GetBool("SCHEDULE_ENABLED"),
				InsightsCron: viper.GetString("SCHEDULE_INSIGHTS_CRON"),
			},
			Analytics: AnalyticsConfig{
				AnomalyWarnThreshold: viper.GetFloat64("ANALYTICS_ANOMALY_WARN_THRESHOLD"),
				ForecastMonths:       viper.GetInt("ANALYTICS_FORECAST_MONTHS"),
				DemandDaysAhead:      viper.GetInt("ANALYTICS_DEMAND_DAYS_AHEAD"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
