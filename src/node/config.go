package node

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/sirupsen/logrus"
)

// DefaultTickInterval is the period of tick events.
const DefaultTickInterval = 50 * time.Millisecond

// Config contains the runtime options of a Node.
type Config struct {
	// TickInterval is the period of the tick events delivered to handlers
	// that implement Ticker.
	TickInterval time.Duration

	Logger *logrus.Entry

	// timerFactory replaces time.After in tests.
	timerFactory timerFactory
}

// NewConfig ...
func NewConfig(tickInterval time.Duration, logger *logrus.Entry) *Config {
	return &Config{
		TickInterval: tickInterval,
		Logger:       logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		TickInterval: DefaultTickInterval,
		Logger:       logrus.NewEntry(logger),
	}
}

// TestConfig returns a Config logging through t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestEntry(t, common.TestLogLevel)
	return config
}
