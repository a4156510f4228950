// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sealforge CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the sealforge CLI.
var rootCmd = &cobra.Command{
	Use:   "sealforge",
	Short: "Autonomous crypto-intelligence agent for the Sui marketplace",
	Long: `sealforge scans market data sources, identifies intelligence signals worth
paying for, reasons them into structured reports, and publishes each report
as an on-chain listing whose payload is threshold-encrypted and stored on
Walrus. Buyers unlock payloads by proving their purchase to the key
custodians.

The publish pipeline is one subcommand (run); scan, listing, purchase,
unlock and verify expose the individual pieces.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sealforge.yaml or ~/.config/sealforge/config.yaml)")
	rootCmd.PersistentFlags().String("deployed", "deployed.yaml", "deployed contract addresses file")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sealforge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sealforge"))
		}
	}

	viper.SetEnvPrefix("SEALFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
