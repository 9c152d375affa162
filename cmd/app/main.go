package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configDir  string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "questcycle",
	Short: "Generates and expires recurring family quests",
	Long: `questcycle materialises quest instances from recurring templates for the
current cycle of each family and marks unfinished instances of past cycles as
missed, resetting streaks and clearing claimed family quests.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", configPath, "Directory searched for config.yaml")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (overrides --config-dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
