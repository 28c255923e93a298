package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_FromEnviron(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONNECTION_BUFFER_SIZE", "64")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("AUTH_TOKEN_DURATION", "1h")
	t.Setenv("BADGER_FILEPATH", "/tmp/journal")
	t.Setenv("INTERNAL_API_KEY", "key")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com,")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	req.NoError(err)
	req.NoError(config.Validate())
	req.Equal(8080, config.Port)
	req.Equal(5*time.Minute, config.TokenRefreshThreshold)
	req.Equal(2*time.Second, config.PairingTimeout)
	req.Equal(4, config.PushWorkers)
	req.Equal("journal.push", config.NatsSubject)
	req.Equal([]string{"https://app.example.com", "https://admin.example.com"}, config.Origins())
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		ConnectionBufferSize:  8,
		JWTSecret:             "0123456789abcdef0123456789abcdef",
		AuthTokenDuration:     time.Hour,
		TokenRefreshThreshold: 5 * time.Minute,
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"threshold longer than token", func(c *Config) { c.TokenRefreshThreshold = 2 * time.Hour }},
		{"no connection buffer", func(c *Config) { c.ConnectionBufferSize = 0 }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			require.Error(t, config.Validate())
		})
	}
}
