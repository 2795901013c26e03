package main

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type ServiceConfig struct {
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	Port        string `env:"PORT" env-default:"8080"`

	SentryDSN string `env:"SENTRY_DSN"`

	// CapturesBucketURL is a gocloud.dev bucket URL (file:// or gs://)
	// holding lz4-compressed capture documents.
	CapturesBucketURL string `env:"CAPTURES_BUCKET_URL"`

	KafkaBrokers        []string `env:"KAFKA_BROKERS"`
	CallTreesKafkaTopic string   `env:"CALL_TREES_KAFKA_TOPIC" env-default:"analysis-call-trees"`
}

func loadConfig() (ServiceConfig, error) {
	var config ServiceConfig
	err := cleanenv.ReadEnv(&config)
	return config, err
}
