package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/firestore"
)

// Поддерживаемые backend'ы хранения корзины.
const (
	StorageDriverMemory    = "memory"
	StorageDriverPostgres  = "postgres"
	StorageDriverFirestore = "firestore"
)

// Переменные окружения сервиса.
const (
	envGRPCAddr            = "CART_GRPC_ADDR"
	envMetricsAddr         = "CART_METRICS_ADDR"
	envStorageDriver       = "CART_STORAGE_DRIVER"
	envPostgresDSN         = "CART_POSTGRES_DSN"
	envPostgresAutoMigrate = "CART_POSTGRES_AUTO_MIGRATE"
	envFirestoreProject    = "CART_FIRESTORE_PROJECT"
	envFirestoreCollection = "CART_FIRESTORE_COLLECTION"
	envKafkaBrokers        = "CART_KAFKA_BROKERS"
	envKafkaTopic          = "CART_KAFKA_TOPIC"
	envSaveTimeout         = "CART_SAVE_TIMEOUT"
	envSaveMaxAttempts     = "CART_SAVE_MAX_ATTEMPTS"
	envLogLevel            = "CART_LOG_LEVEL"
)

// Config описывает настройки запуска сервиса корзины.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	FirestoreProject    string
	FirestoreCollection string

	// KafkaBrokers — список через запятую; пустое значение отключает ленту изменений.
	KafkaBrokers string
	KafkaTopic   string

	SaveTimeout time.Duration
	// SaveMaxAttempts > 1 включает повторы записи с экспоненциальной задержкой.
	SaveMaxAttempts int
	LogLevel        string
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		FirestoreCollection: firestore.DefaultCollection,
		KafkaTopic:          kafka.TopicCartEvents,
		SaveTimeout:         5 * time.Second,
		SaveMaxAttempts:     1,
		LogLevel:            log.InfoLevel.String(),
	}
}

// envLookup совпадает по сигнатуре с os.LookupEnv.
type envLookup func(key string) (string, bool)

// LoadConfigFromEnv накладывает переменные CART_* на DefaultConfig.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию,
// а причина возвращается в warnings.
func LoadConfigFromEnv() (Config, []error) {
	return readConfigFromEnv(os.LookupEnv)
}

func readConfigFromEnv(lookup envLookup) (Config, []error) {
	cfg := DefaultConfig()
	var warnings []error

	if v, ok := lookupTrimmed(lookup, envGRPCAddr); ok {
		cfg.GRPCAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envStorageDriver); ok {
		cfg.StorageDriver = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, envPostgresDSN); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := lookupTrimmed(lookup, envPostgresAutoMigrate); ok {
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", envPostgresAutoMigrate, err))
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envFirestoreProject); ok {
		cfg.FirestoreProject = v
	}
	if v, ok := lookupTrimmed(lookup, envFirestoreCollection); ok {
		cfg.FirestoreCollection = v
	}
	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = v
	}
	if v, ok := lookupTrimmed(lookup, envKafkaTopic); ok {
		cfg.KafkaTopic = v
	}
	if v, ok := lookupTrimmed(lookup, envSaveTimeout); ok {
		parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", envSaveTimeout, err))
		} else {
			cfg.SaveTimeout = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envSaveMaxAttempts); ok {
		parsed, err := parseInt(v, 1)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", envSaveMaxAttempts, err))
		} else {
			cfg.SaveMaxAttempts = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envLogLevel); ok {
		if _, err := log.ParseLevel(v); err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", envLogLevel, err))
		} else {
			cfg.LogLevel = strings.ToLower(v)
		}
	}

	return cfg, warnings
}

// Level возвращает уровень логирования; неизвестное значение даёт info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, minValue int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if value < minValue {
		return 0, fmt.Errorf("value %d must be >= %d", value, minValue)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if valid != nil && !valid(value) {
		return 0, fmt.Errorf("duration %q %s", raw, rule)
	}
	return value, nil
}
