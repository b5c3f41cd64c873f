// Package main provides the inkpost CLI: run the server, manage users and
// render Markdown from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// configFile is set by the --config flag.
	configFile string

	// cfg is loaded by PersistentPreRunE before any subcommand runs.
	cfg *viper.Viper
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inkpost",
	Short: "inkpost is a small multi-author Markdown blog",
	Long: `inkpost serves a blog whose posts are written in Markdown and rendered
to sanitized HTML on every read. Configuration comes from an optional YAML
file and INKPOST_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = v
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./inkpost.yaml if present)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(useraddCmd)
	rootCmd.AddCommand(renderCmd)
}
