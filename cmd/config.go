package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret string

	KafkaHost              string
	KafkaOrderChangedTopic string

	WSSendTimeout time.Duration
	WSSendBuffer  int
	WSInboundRate float64

	NotificationRedeliverySchedule string
	NotificationMaxPendingAge      time.Duration
}

// LoadConfig reads the environment after loading envFile when it exists.
// Variables already set in the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	var errList []error
	config := Config{
		HTTPPort:   getenv("HTTP_PORT", "8080"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", ""),
		DBName:     getenv("DB_NAME", "workorders"),
		DBSslMode:  getenv("DB_SSLMODE", "disable"),

		JWTSecret: getenv("JWT_SECRET", ""),

		KafkaHost:              getenv("KAFKA_HOST", ""),
		KafkaOrderChangedTopic: getenv("KAFKA_ORDER_CHANGED_TOPIC", "order.changed"),

		WSSendTimeout: parse(&errList, "WS_SEND_TIMEOUT", 5*time.Second, time.ParseDuration),
		WSSendBuffer:  parse(&errList, "WS_SEND_BUFFER", 32, strconv.Atoi),
		WSInboundRate: parse(&errList, "WS_INBOUND_RATE", 10, func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		}),

		NotificationRedeliverySchedule: getenv("NOTIFICATION_REDELIVERY_SCHEDULE", "*/30 * * * * *"),
		NotificationMaxPendingAge:      parse(&errList, "NOTIFICATION_MAX_PENDING_AGE", 24*time.Hour, time.ParseDuration),
	}
	if config.JWTSecret == "" {
		errList = append(errList, errors.New("JWT_SECRET is required"))
	}

	if err := errors.Join(errList...); err != nil {
		return Config{}, err
	}
	return config, nil
}

// DSN is the postgres connection string for gorm.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode,
	)
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parse[T any](errList *[]error, key string, def T, parseFn func(string) (T, error)) T {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	v, err := parseFn(raw)
	if err != nil {
		*errList = append(*errList, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
