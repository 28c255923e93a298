package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	InboundQueueSize     int           `env:"INBOUND_QUEUE_SIZE,default=16"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s"`
	MaxFrameBytes        int64         `env:"MAX_FRAME_BYTES,default=65536"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`

	JWTSecret             string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration     time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	TokenRefreshThreshold time.Duration `env:"TOKEN_REFRESH_THRESHOLD,default=5m"`
	TokenRefreshTimeout   time.Duration `env:"TOKEN_REFRESH_TIMEOUT,default=2s"`

	PairingTimeout    time.Duration `env:"PAIRING_TIMEOUT,default=2s"`
	ParticipantsTTL   time.Duration `env:"PARTICIPANTS_TTL,default=5m"`
	MaxCachedJournals int64         `env:"MAX_CACHED_JOURNALS,default=10000"`

	PushWorkers   int           `env:"PUSH_WORKERS,default=4"`
	PushQueueSize int           `env:"PUSH_QUEUE_SIZE,default=1024"`
	PushTimeout   time.Duration `env:"PUSH_TIMEOUT,default=5s"`
	NatsURL       string        `env:"NATS_URL"`
	NatsSubject   string        `env:"NATS_SUBJECT,default=journal.push"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=1m"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	InternalAPIKey string `env:"INTERNAL_API_KEY,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	DebugPort      int    `env:"DEBUG_PORT,default=8081"`
}

// Validate catches combinations go-env cannot express.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if c.TokenRefreshThreshold >= c.AuthTokenDuration {
		return fmt.Errorf("TOKEN_REFRESH_THRESHOLD (%s) must be shorter than AUTH_TOKEN_DURATION (%s)",
			c.TokenRefreshThreshold, c.AuthTokenDuration)
	}
	if c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	}
	return nil
}

func (c Config) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
