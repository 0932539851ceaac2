// Package main provides the gtmatrix command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gtmatrix",
		Short: "Stream VCF genotype data into matrices, call rates and binary dumps",
		Long: `gtmatrix ingests genotype data in the Variant Call Format, applies
quality filters, and emits derived artifacts: a sample-by-variant genotype
matrix, per-region call-rate statistics and a compact binary encoding.
Missing genotypes at designated target variants can be imputed from
neighbouring variants inside a sliding genomic window.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig wires the optional ~/.gtmatrix.yaml config file and the
// GTMATRIX_* environment into viper.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetConfigFile(filepath.Join(home, ".gtmatrix.yaml"))
		if err := viper.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				if !os.IsNotExist(err) {
					return fmt.Errorf("reading config: %w", err)
				}
			}
		}
	}
	viper.SetEnvPrefix("GTMATRIX")
	viper.AutomaticEnv()
	return nil
}

// newLogger builds the CLI logger: human-readable output on stderr,
// debug-level when verbose is enabled.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !viper.GetBool("verbose") {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
