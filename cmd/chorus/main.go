package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Chorus is an HTTP aggregation gateway for Ollama/OpenAI-compatible LLM providers",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the TOML configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigPath implements the documented precedence: --config
// flag > CHORUS_CONFIG environment variable > ~/.config/chorus/config.toml.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("CHORUS_CONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return home + "/.config/chorus/config.toml"
}
