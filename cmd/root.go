package cmd

import (
	"fmt"
	"os"

	"dhcp-leasewatch/internal/pkg/config"
	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/types"

	"github.com/spf13/cobra"
)

// Process exit codes
const (
	ExitOK             = 0
	ExitAssertion      = 1
	ExitUsage          = 2
	ExitInfrastructure = 3
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:           "dhcp-leasewatch",
	Short:         "dhcp-leasewatch runs a DHCP server and tracks the leases it hands out",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits with the code matching the error class.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case types.IsAssertion(err):
		return ExitAssertion
	case types.IsInfrastructure(err):
		return ExitInfrastructure
	default:
		return ExitUsage
	}
}

// loadConfig loads and validates the configuration file, then initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, types.NewUsageError("config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, types.NewUsageError("config validation", err)
	}

	logging.InitLogger(cfg.Logging)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "f", "", "Path to config file (YAML)")
}
