package commands

import (
	"github.com/mosaicnetworks/glomers/src/config"
)

//CLIConfig contains configuration for the Run command
type CLIConfig struct {
	Glomers config.Config `mapstructure:",squash"`

	// ConfigDir is searched for glomers.toml, glomers.yaml or glomers.json.
	ConfigDir string `mapstructure:"config-dir"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Glomers:   *config.NewDefaultConfig(),
		ConfigDir: ".",
	}
}
