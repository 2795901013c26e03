package main

import (
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("PORT", "9090")

	config, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if config.Environment != "staging" || config.Port != "9090" {
		t.Fatalf("config = %+v", config)
	}
	if config.CallTreesKafkaTopic != "analysis-call-trees" {
		t.Fatalf("topic default = %q", config.CallTreesKafkaTopic)
	}
}
