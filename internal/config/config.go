package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

type Storage struct {
	// "postgres" or "memory"
	Driver string
}

type RedisCache struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	Key      string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Logging struct {
	Level  string
	Format string
}

type Websocket struct {
	SendBuffer int
}

type Config struct {
	HTTP      HTTPServer
	Storage   Storage
	Redis     RedisCache
	Postgres  Postgres
	Logging   Logging
	Websocket Websocket
}

const (
	logtag = "[config]"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := FromEnv()
	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg
}

// FromEnv builds the config from the current environment only.
func FromEnv() *Config {
	return &Config{
		HTTP:      *newHTTP(),
		Storage:   *newStorage(),
		Redis:     *newRedis(),
		Postgres:  *newPostgres(),
		Logging:   *newLogging(),
		Websocket: *newWebsocket(),
	}
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port:           getenv("HTTP_PORT", "5001"),
		Host:           getenv("HTTP_HOST", "localhost"),
		AllowedOrigins: splitList(getenv("HTTP_ALLOWED_ORIGINS", "http://localhost:5173")),
	}
}

func newStorage() *Storage {
	return &Storage{
		Driver: strings.ToLower(getenv("STORAGE_DRIVER", StoragePostgres)),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Enabled:  getenvBool("REDIS_ENABLED", true),
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
		Key:      getenv("REDIS_LATEST_POLL_KEY", "latest_poll_id"),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "livepoll"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newLogging() *Logging {
	return &Logging{
		Level:  getenv("LOG_LEVEL", "info"),
		Format: getenv("LOG_FORMAT", "text"),
	}
}

func newWebsocket() *Websocket {
	return &Websocket{
		SendBuffer: getenvInt("WS_SEND_BUFFER", 256),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getenvInt(key string, defaultValue int) int {
	val, err := strconv.Atoi(getenv(key, strconv.Itoa(defaultValue)))
	if err != nil || val <= 0 {
		fmt.Printf("%s %s is not a positive int. Using default value %d\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}

func getenvBool(key string, defaultValue bool) bool {
	val, err := strconv.ParseBool(getenv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return val
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
