package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/saaga0h/lumos-platform/internal/analytics"
)

// Config holds the configuration for a Lumos service
type Config struct {
	// MQTT configuration
	MQTTBroker      string
	MQTTPort        int
	MQTTUser        string
	MQTTPassword    string
	MQTTClientID    string
	MotionTopic     string
	StatusTopic     string
	TimeConfigTopic string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName  string
	HealthPort   int
	APIPort      int
	LogLevel     string
	StoreBackend string
	IngestBuffer int
	CORSOrigins  []string

	// Analytics configuration
	SessionGapSeconds   int64
	MotionWindowSeconds int64
	PowerHighWatts      float64
	PowerLowWatts       float64
	Timezone            string
	Latitude            float64
	Longitude           float64
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	defaults := analytics.DefaultSettings()

	return &Config{
		MQTTBroker:      "localhost",
		MQTTPort:        1883,
		MotionTopic:     "lumosMQTT/motion",
		StatusTopic:     "lumosMQTT/status",
		TimeConfigTopic: "lumosMQTT/test/time_config",
		RedisHost:       "localhost",
		RedisPort:       6379,
		RedisDB:         0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "lumos",
		PostgresDB:                 "lumos",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetime:    30 * time.Minute,

		ServiceName:  "lumos-server",
		HealthPort:   8080,
		APIPort:      5050,
		LogLevel:     "info",
		StoreBackend: "postgres",
		IngestBuffer: 256,
		CORSOrigins:  []string{"*"},

		SessionGapSeconds:   defaults.SessionGapSeconds,
		MotionWindowSeconds: defaults.MotionWindowSeconds,
		PowerHighWatts:      defaults.PowerHighWatts,
		PowerLowWatts:       defaults.PowerLowWatts,
		Timezone:            "Local",
		// Helsinki
		Latitude:  60.1695,
		Longitude: 24.9354,
	}
}

// LoadDotEnv loads a .env file into the process environment. A missing
// file is not an error; variables already set in the environment win.
func (c *Config) LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables with LUMOS_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	envString("LUMOS_MQTT_BROKER", &c.MQTTBroker)
	envInt("LUMOS_MQTT_PORT", &c.MQTTPort)
	envString("LUMOS_MQTT_USER", &c.MQTTUser)
	envString("LUMOS_MQTT_PASSWORD", &c.MQTTPassword)
	envString("LUMOS_MQTT_CLIENT_ID", &c.MQTTClientID)
	envString("LUMOS_MQTT_TOPIC_MOTION", &c.MotionTopic)
	envString("LUMOS_MQTT_TOPIC_STATUS", &c.StatusTopic)
	envString("LUMOS_MQTT_TOPIC_TIME_CONFIG", &c.TimeConfigTopic)

	// Redis configuration
	envString("LUMOS_REDIS_HOST", &c.RedisHost)
	envInt("LUMOS_REDIS_PORT", &c.RedisPort)
	envString("LUMOS_REDIS_PASSWORD", &c.RedisPassword)
	envInt("LUMOS_REDIS_DB", &c.RedisDB)

	// Postgres configuration
	envString("LUMOS_POSTGRES_HOST", &c.PostgresHost)
	envInt("LUMOS_POSTGRES_PORT", &c.PostgresPort)
	envString("LUMOS_POSTGRES_USER", &c.PostgresUser)
	envString("LUMOS_POSTGRES_PASSWORD", &c.PostgresPassword)
	envString("LUMOS_POSTGRES_DB", &c.PostgresDB)
	envString("LUMOS_POSTGRES_SSLMODE", &c.PostgresSSLMode)
	envInt("LUMOS_POSTGRES_MAX_CONNECTIONS", &c.PostgresMaxConnections)
	envInt("LUMOS_POSTGRES_MAX_IDLE_CONNECTIONS", &c.PostgresMaxIdleConnections)
	if v := os.Getenv("LUMOS_POSTGRES_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PostgresConnMaxLifetime = d
		}
	}

	// Service configuration
	envString("LUMOS_SERVICE_NAME", &c.ServiceName)
	envInt("LUMOS_HEALTH_PORT", &c.HealthPort)
	envInt("LUMOS_API_PORT", &c.APIPort)
	envString("LUMOS_LOG_LEVEL", &c.LogLevel)
	envString("LUMOS_STORE_BACKEND", &c.StoreBackend)
	envInt("LUMOS_INGEST_BUFFER", &c.IngestBuffer)
	if v := os.Getenv("LUMOS_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	// Analytics configuration
	if v := os.Getenv("LUMOS_SESSION_GAP_SECONDS"); v != "" {
		if gap, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SessionGapSeconds = gap
		}
	}
	if v := os.Getenv("LUMOS_MOTION_WINDOW_SECONDS"); v != "" {
		if window, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MotionWindowSeconds = window
		}
	}
	envFloat("LUMOS_POWER_HIGH_WATTS", &c.PowerHighWatts)
	envFloat("LUMOS_POWER_LOW_WATTS", &c.PowerLowWatts)
	envString("LUMOS_TIMEZONE", &c.Timezone)
	envFloat("LUMOS_LATITUDE", &c.Latitude)
	envFloat("LUMOS_LONGITUDE", &c.Longitude)
}

// RegisterFlags binds configuration fields to the given flag set
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")
	fs.StringVar(&c.MotionTopic, "mqtt-topic-motion", c.MotionTopic, "Topic the device publishes motion events to")
	fs.StringVar(&c.StatusTopic, "mqtt-topic-status", c.StatusTopic, "Topic the device publishes its status to")
	fs.StringVar(&c.TimeConfigTopic, "mqtt-topic-time-config", c.TimeConfigTopic, "Topic for virtual time configuration")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres sslmode")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.StoreBackend, "store", c.StoreBackend, "Event store backend (postgres, memory)")
	fs.IntVar(&c.IngestBuffer, "ingest-buffer", c.IngestBuffer, "Pending motion events buffered before the writer")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "Allowed CORS origins for /api")

	// Analytics flags
	fs.Int64Var(&c.SessionGapSeconds, "session-gap-seconds", c.SessionGapSeconds, "Max gap between events of one presence session")
	fs.Int64Var(&c.MotionWindowSeconds, "motion-window-seconds", c.MotionWindowSeconds, "Device high-brightness hold window per event")
	fs.Float64Var(&c.PowerHighWatts, "power-high-watts", c.PowerHighWatts, "Light power draw while high")
	fs.Float64Var(&c.PowerLowWatts, "power-low-watts", c.PowerLowWatts, "Light power draw while low")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA timezone used to derive event day/hour")
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight context")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight context")
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.MotionTopic == "" {
		return fmt.Errorf("motion topic is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.IngestBuffer <= 0 {
		return fmt.Errorf("ingest buffer must be positive")
	}

	switch c.StoreBackend {
	case "postgres":
		if c.PostgresHost == "" || c.PostgresDB == "" {
			return fmt.Errorf("Postgres host and database are required for the postgres store")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid store backend: %s (must be postgres or memory)", c.StoreBackend)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return c.AnalyticsSettings().Validate()
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AnalyticsSettings builds the analytics engine settings from the config.
// An unresolvable timezone falls back to time.Local; Validate reports it.
func (c *Config) AnalyticsSettings() analytics.Settings {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}

	return analytics.Settings{
		SessionGapSeconds:   c.SessionGapSeconds,
		MotionWindowSeconds: c.MotionWindowSeconds,
		PowerHighWatts:      c.PowerHighWatts,
		PowerLowWatts:       c.PowerLowWatts,
		Location:            loc,
		Latitude:            c.Latitude,
		Longitude:           c.Longitude,
	}
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq key/value connection string
func (c *Config) PostgresConnectionString() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.PostgresHost),
		fmt.Sprintf("port=%d", c.PostgresPort),
		fmt.Sprintf("dbname=%s", c.PostgresDB),
		fmt.Sprintf("sslmode=%s", c.PostgresSSLMode),
	}
	if c.PostgresUser != "" {
		parts = append(parts, fmt.Sprintf("user=%s", c.PostgresUser))
	}
	if c.PostgresPassword != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.PostgresPassword))
	}
	return strings.Join(parts, " ")
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
