package ledger

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the ledger tunables. It is read once at process start.
type Config struct {
	Difficulty     uint          `env:"BRITCOIN_DIFFICULTY"      envDefault:"2"`   // leading zeros required in a proof
	PersistTimeout time.Duration `env:"BRITCOIN_PERSIST_TIMEOUT" envDefault:"10s"` // upper bound on a single store append
}

// LoadConfig reads the ledger configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse ledger config: %w", err)
	}
	return cfg, nil
}
