package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_ADDR is the host:port of a running server, the suite is skipped when empty
	ServerAddr string `envconfig:"E2E_SERVER_ADDR"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_DEBUG_JSON dumps every received frame
	DebugJSON bool          `envconfig:"E2E_DEBUG_JSON" default:"false"`
	Timeout   time.Duration `envconfig:"E2E_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
