package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Taskboard - paginated task board in the terminal",
	Long: `Taskboard serves a task list over a local HTTP API and browses it in a
terminal UI with per-status tabs, infinite scroll, search, sorting and
status changes.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7466", "API server address")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
