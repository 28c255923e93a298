package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	ServerURL     string        `envconfig:"JOURNAL_URL" default:"http://localhost:8080"`
	InternalKey   string        `envconfig:"INTERNAL_API_KEY"`
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	TokenDuration time.Duration `envconfig:"AUTH_TOKEN_DURATION" default:"1h"`
	// JOURNALCTL_COLOURS enables colorized output of watched frames
	Colours bool `envconfig:"JOURNALCTL_COLOURS" default:"true"`
}

func LoadSettings() (Settings, error) {
	var settings Settings
	err := envconfig.Process("", &settings)
	return settings, err
}
