package password

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the documented bcrypt work factor (2^12 rounds).
	DefaultCost = 12

	// MaxSecretBytes is bcrypt's input limit.
	MaxSecretBytes = 72

	// costHeadroom bounds how far above the configured cost a stored hash may
	// go before Verify refuses to run it.
	costHeadroom = 4
)

// Config is the single configuration surface for this package.
type Config struct {
	Cost int
}

// DefaultConfig returns the production baseline.
func DefaultConfig() Config {
	return Config{Cost: DefaultCost}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - SCRIBE_BCRYPT_COST (bcrypt.MinCost..bcrypt.MaxCost)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("SCRIBE_BCRYPT_COST"); ok {
		n, err := atoiRange(v, bcrypt.MinCost, bcrypt.MaxCost)
		if err != nil {
			return Config{}, fmt.Errorf("SCRIBE_BCRYPT_COST: %w", err)
		}
		cfg.Cost = n
	}

	return cfg, nil
}

func atoiRange(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}
