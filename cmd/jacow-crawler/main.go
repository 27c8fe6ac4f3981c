// Copyright Ming Liu, 2025. All rights reserved.

// Package main is the entry point for the jacow-crawler CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the jacow-crawler CLI.
var rootCmd = &cobra.Command{
	Use:   "jacow-crawler",
	Short: "Crawler for JACoW accelerator conference proceedings",
	Long: `jacow-crawler discovers accelerator conferences on the JACoW proceedings
index, walks their session pages, and extracts paper metadata with computed
artifact URLs for papers, talks, and posters.

Each stage is a subcommand: crawl discovers and catalogs papers, sessions
inspects one conference's session structure, download transfers available
PDFs, and organize arranges them into a browsable library.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./jacow-crawler.yaml or ~/.config/jacow-crawler/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("jacow-crawler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "jacow-crawler"))
		}
	}

	viper.SetEnvPrefix("JACOW_CRAWLER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	if err := decodeConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid config:", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
