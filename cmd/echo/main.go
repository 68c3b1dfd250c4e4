package main

import (
	"os"

	cmd "github.com/mosaicnetworks/glomers/cmd/glomers/commands"
	"github.com/mosaicnetworks/glomers/src/glomers"
)

func main() {
	rootCmd := cmd.NewWorkloadCmd(glomers.Echo)

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
