// Package config loads the runtime configuration and owns the shared
// infrastructure handles: caches and database connections.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config is the full runtime configuration, environment-driven with
// sensible defaults for local use.
type Config struct {
	Port         string
	StoreBackend string
	CSVPath      string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	MongoURI    string
	MongoDBName string

	GeocoderURL      string
	GeocodeTimeout   time.Duration
	GeocodeCacheTTL  time.Duration
	GeocodeCacheCap  int
	IBGEBaseURL      string
	IBGETimeout      time.Duration
	RecordCacheTTL   time.Duration
	LocalityCacheTTL time.Duration
	UsersFile        string
	CapitalsFile     string
	CookieHashKey    string
	CookieBlockKey   string
	AllowedOrigins   []string
	ShutdownTimeout  time.Duration
	DBConnectRetries int
}

// Load reads .env (when present) and the environment into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("store_backend", BackendCSV)
	v.SetDefault("csv_path", "distributors.csv")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "distribuidores")
	v.SetDefault("db_ssl_mode", "disable")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db_name", "distribuidores")
	v.SetDefault("geocoder_url", "")
	v.SetDefault("geocode_timeout", "8s")
	v.SetDefault("geocode_cache_ttl", "24h")
	v.SetDefault("geocode_cache_cap", 10000)
	v.SetDefault("ibge_base_url", "")
	v.SetDefault("ibge_timeout", "8s")
	v.SetDefault("record_cache_ttl", "5m")
	v.SetDefault("locality_cache_ttl", "24h")
	v.SetDefault("users_file", "usuarios.json")
	v.SetDefault("capitals_file", "")
	v.SetDefault("cookie_hash_key", "chave_secreta_segura_123_hash_padrao_dev")
	v.SetDefault("cookie_block_key", "")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("shutdown_timeout", "30s")
	v.SetDefault("db_connect_retries", 5)

	return &Config{
		Port:             v.GetString("port"),
		StoreBackend:     strings.ToLower(v.GetString("store_backend")),
		CSVPath:          v.GetString("csv_path"),
		DBHost:           v.GetString("db_host"),
		DBPort:           v.GetString("db_port"),
		DBUser:           v.GetString("db_user"),
		DBPassword:       v.GetString("db_password"),
		DBName:           v.GetString("db_name"),
		DBSSLMode:        v.GetString("db_ssl_mode"),
		MongoURI:         v.GetString("mongo_uri"),
		MongoDBName:      v.GetString("mongo_db_name"),
		GeocoderURL:      v.GetString("geocoder_url"),
		GeocodeTimeout:   v.GetDuration("geocode_timeout"),
		GeocodeCacheTTL:  v.GetDuration("geocode_cache_ttl"),
		GeocodeCacheCap:  v.GetInt("geocode_cache_cap"),
		IBGEBaseURL:      v.GetString("ibge_base_url"),
		IBGETimeout:      v.GetDuration("ibge_timeout"),
		RecordCacheTTL:   v.GetDuration("record_cache_ttl"),
		LocalityCacheTTL: v.GetDuration("locality_cache_ttl"),
		UsersFile:        v.GetString("users_file"),
		CapitalsFile:     v.GetString("capitals_file"),
		CookieHashKey:    v.GetString("cookie_hash_key"),
		CookieBlockKey:   v.GetString("cookie_block_key"),
		AllowedOrigins:   strings.Split(v.GetString("allowed_origins"), ","),
		ShutdownTimeout:  v.GetDuration("shutdown_timeout"),
		DBConnectRetries: v.GetInt("db_connect_retries"),
	}
}
