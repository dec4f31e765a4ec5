package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds worship-server configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// Root of the local data directory (profiles.json, sheets.json, sheet images).
	DataDir string // DATA_DIR

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
	WSMaxMessageSize  int64
	SendBufferSize    int

	// Replay the current presentation state to a newly registering
	// participant, in addition to the sheet catalog.
	ReplayPresentation bool // REPLAY_PRESENTATION

	// Reject sheet-change events naming a sheet id absent from the catalog.
	ValidateSheetChange bool // VALIDATE_SHEET_CHANGE
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	maxMsg, _ := strconv.ParseInt(getEnv("WS_MAX_MESSAGE_SIZE", "1048576"), 10, 64)
	sendBuf, _ := strconv.Atoi(getEnv("WS_SEND_BUFFER_SIZE", "64"))

	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		AppHost:             getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:            firstEnv("APP_PORT", "HTTP_PORT", "3000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DataDir:             getEnv("DATA_DIR", "data"),
		WSReadBufferSize:    readBuf,
		WSWriteBufferSize:   writeBuf,
		WSMaxMessageSize:    maxMsg,
		SendBufferSize:      sendBuf,
		ReplayPresentation:  getBool("REPLAY_PRESENTATION", true),
		ValidateSheetChange: getBool("VALIDATE_SHEET_CHANGE", false),
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: DATA_DIR is required")
	}
	if c.SendBufferSize <= 0 {
		return errors.New("config: WS_SEND_BUFFER_SIZE must be positive")
	}
	return nil
}

// Addr returns listen address for HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
