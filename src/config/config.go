package config

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/net"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default configuration values.
const (
	DefaultLogLevel     = "info"
	DefaultLogFile      = ""
	DefaultWorkload     = "echo"
	DefaultTickInterval = 50 * time.Millisecond
	DefaultServiceAddr  = ""
	DefaultStore        = false
	DefaultDatabaseDir  = "glomers_db"
	DefaultCounterKey   = "counter"
	DefaultKVNode       = "seq-kv"
)

// Config contains all the configuration properties of a glomers node.
type Config struct {
	// LogLevel determines the chattiness of the log output. Logs always go
	// to stderr, stdout carries the protocol.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of every log entry in JSON.
	LogFile string `mapstructure:"log-file"`

	// Workload selects the handler run by the node: echo, unique-ids,
	// broadcast, g-counter or seq-kv.
	Workload string `mapstructure:"workload"`

	// TickInterval is the period of the gossip and commit timers.
	TickInterval time.Duration `mapstructure:"tick"`

	// ServiceAddr is the address:port of the optional HTTP stats service. The
	// service is disabled when it is empty.
	ServiceAddr string `mapstructure:"service-listen"`

	// Store activates persistant storage for the seq-kv workload.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// CounterKey is the key of the g-counter in the key-value service.
	CounterKey string `mapstructure:"counter-key"`

	// KVNode is the NodeID of the key-value service used by the g-counter.
	KVNode string `mapstructure:"kv-node"`

	// Transport carries the protocol. It defaults to stdin and stdout.
	Transport net.Transport

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		LogLevel:     DefaultLogLevel,
		LogFile:      DefaultLogFile,
		Workload:     DefaultWorkload,
		TickInterval: DefaultTickInterval,
		ServiceAddr:  DefaultServiceAddr,
		Store:        DefaultStore,
		DatabaseDir:  DefaultDatabaseDir,
		CounterKey:   DefaultCounterKey,
		KVNode:       DefaultKVNode,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// Logger returns a formatted logrus Entry, with prefix set to "glomers".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = newLogger(os.Stderr, c.LogLevel, c.LogFile)
	}
	return c.logger.WithField("prefix", "glomers")
}

func newLogger(out io.Writer, level string, file string) *logrus.Logger {
	logger := logrus.New()
	logger.Out = out
	logger.Level = LogLevel(level)
	logger.Formatter = new(prefixed.TextFormatter)

	if file != "" {
		pathMap := lfshook.PathMap{}
		for _, l := range logrus.AllLevels {
			pathMap[l] = file
		}

		logger.Hooks.Add(lfshook.NewHook(
			pathMap,
			&logrus.JSONFormatter{},
		))
	}

	return logger
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
