// Package config loads runtime configuration from environment variables,
// one Load function per binary. Every field has a sensible default; only
// the collaborator addresses that a binary cannot function without are
// required.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Gateway configures the submission boundary, tier queues, and scheduler.
type Gateway struct {
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AppStream     string
	ResultStream  string

	FileStoreURL     string
	FileStoreTimeout time.Duration

	// Scheduler behaviour
	IdleSleep time.Duration
	MinDelay  time.Duration
	MaxDelay  time.Duration

	// Submission boundary rate limit, requests per second
	SubmitRate  int
	SubmitBurst int
}

func LoadGateway() (*Gateway, error) {
	cfg := &Gateway{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		AppStream:     getEnv("APPLICATION_STREAM", "applications"),
		ResultStream:  getEnv("RESULT_STREAM", "application-results"),

		FileStoreURL:     getEnv("FILESTORE_URL", "http://localhost:8082"),
		FileStoreTimeout: getDuration("FILESTORE_TIMEOUT", 30*time.Second),

		IdleSleep: getDuration("SCHEDULER_IDLE_SLEEP", 100*time.Millisecond),
		MinDelay:  getDuration("MIN_PROCESSING_DELAY", time.Second),
		MaxDelay:  getDuration("MAX_PROCESSING_DELAY", 2*time.Second),

		SubmitRate:  getInt("SUBMIT_RATE", 100),
		SubmitBurst: getInt("SUBMIT_BURST", 200),
	}
	if cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("MAX_PROCESSING_DELAY must not be below MIN_PROCESSING_DELAY")
	}
	return cfg, nil
}

// Processor configures the intake consumer, worker pool, and persistence.
type Processor struct {
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AppStream     string
	ResultStream  string
	ConsumerGroup string
	ConsumerName  string
	FetchBatch    int
	FetchBlock    time.Duration

	Workers    int
	WorkBuffer int

	StatsInterval time.Duration
}

func LoadProcessor() (*Processor, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	host, err := os.Hostname()
	if err != nil {
		host = "processor"
	}

	return &Processor{
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		AppStream:     getEnv("APPLICATION_STREAM", "applications"),
		ResultStream:  getEnv("RESULT_STREAM", "application-results"),
		ConsumerGroup: getEnv("CONSUMER_GROUP", "application-processor"),
		ConsumerName:  getEnv("CONSUMER_NAME", host),
		FetchBatch:    getInt("FETCH_BATCH", 10),
		FetchBlock:    getDuration("FETCH_BLOCK", 2*time.Second),

		Workers:    getInt("WORKERS", 10),
		WorkBuffer: getInt("WORK_BUFFER", 1000),

		StatsInterval: getDuration("STATS_SAVE_INTERVAL", 30*time.Second),
	}, nil
}

// FileStore configures the staging store, sweeper, and object store.
type FileStore struct {
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	StagingTTL    time.Duration
	SweepInterval time.Duration

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	URLExpiry   time.Duration
}

func LoadFileStore() (*FileStore, error) {
	return &FileStore{
		HTTPPort:        getEnv("HTTP_PORT", "8082"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StagingTTL:    getDuration("STAGING_TTL", 30*time.Minute),
		SweepInterval: getDuration("SWEEP_INTERVAL", 5*time.Minute),

		S3Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:    getEnv("S3_BUCKET", "application-files"),
		S3UseSSL:    getBool("S3_USE_SSL", false),
		URLExpiry:   getDuration("PRESIGNED_URL_EXPIRY", 24*time.Hour),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
