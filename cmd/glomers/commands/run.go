package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mosaicnetworks/glomers/src/glomers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a glomers node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runGlomers,
	}
	AddRunFlags(cmd)
	return cmd
}

// NewWorkloadCmd returns a root command that runs workload without
// arguments, which is how test harnesses start their binaries.
func NewWorkloadCmd(workload string) *cobra.Command {
	_config.Glomers.Workload = workload

	cmd := &cobra.Command{
		Use:     workload,
		Short:   "Run a " + workload + " node",
		PreRunE: loadConfig,
		RunE:    runGlomers,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runGlomers(cmd *cobra.Command, args []string) error {
	engine := glomers.NewGlomers(&_config.Glomers)

	if err := engine.Init(); err != nil {
		_config.Glomers.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		return err
	}

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config-dir", _config.ConfigDir, "Directory searched for glomers.toml")
	cmd.Flags().String("log", _config.Glomers.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.Glomers.LogFile, "Copy logs to this file, in JSON")

	// Workload
	cmd.Flags().StringP("workload", "w", _config.Glomers.Workload, "One of "+strings.Join(glomers.Workloads, ", "))
	cmd.Flags().Duration("tick", _config.Glomers.TickInterval, "Time between gossips and counter commits")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.Glomers.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Glomers.Store, "Use badgerDB instead of in-mem DB for seq-kv")
	cmd.Flags().String("db", _config.Glomers.DatabaseDir, "Database directory")

	// Counter
	cmd.Flags().String("counter-key", _config.Glomers.CounterKey, "Key of the g-counter in the key-value service")
	cmd.Flags().String("kv-node", _config.Glomers.KVNode, "NodeID of the key-value service")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	logFields := logrus.Fields{
		"glomers.LogLevel":     _config.Glomers.LogLevel,
		"glomers.LogFile":      _config.Glomers.LogFile,
		"glomers.Workload":     _config.Glomers.Workload,
		"glomers.TickInterval": _config.Glomers.TickInterval,
		"glomers.ServiceAddr":  _config.Glomers.ServiceAddr,
		"glomers.Store":        _config.Glomers.Store,
	}

	switch _config.Glomers.Workload {
	case glomers.SeqKV:
		if _config.Glomers.Store {
			logFields["glomers.DatabaseDir"] = _config.Glomers.DatabaseDir
		}
	case glomers.GCounter:
		logFields["glomers.CounterKey"] = _config.Glomers.CounterKey
		logFields["glomers.KVNode"] = _config.Glomers.KVNode
	}

	_config.Glomers.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// GLOMERS_SERVICE_LISTEN overrides --service-listen, and so on
	viper.SetEnvPrefix("glomers")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [config-dir]/glomers.toml (.json, .yaml also work)
	viper.SetConfigName("glomers")
	viper.AddConfigPath(_config.ConfigDir)

	// If a config file is found, read it in. The logger is only created once
	// the log level of the file is known.
	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); err != nil && !ok {
		return err
	}

	// second unmarshal to read from config file
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	if err == nil {
		_config.Glomers.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else {
		_config.Glomers.Logger().Debugf("No config file found in: %s", _config.ConfigDir)
	}

	return nil
}
