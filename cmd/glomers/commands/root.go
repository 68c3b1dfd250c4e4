package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for glomers
var RootCmd = &cobra.Command{
	Use:              "glomers",
	Short:            "distributed systems workloads over stdin and stdout",
	TraverseChildren: true,
}
