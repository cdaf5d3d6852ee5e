// Package main is the entry point for the agentgate server CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X main.version=1.2.3"
	version = "0.1.0"
	logo    = "\n" +
		"                         _             _\n" +
		"   __ _  __ _  ___ _ __ | |_ __ _  __ _| |_ ___\n" +
		"  / _` |/ _` |/ _ \\ '_ \\| __/ _` |/ _` | __/ _ \\\n" +
		" | (_| | (_| |  __/ | | | || (_| | (_| | ||  __/\n" +
		"  \\__,_|\\__, |\\___|_| |_|\\__\\__, |\\__,_|\\__\\___|\n" +
		"        |___/               |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "agentgate - serve JSON agent definitions as HTTP endpoints",
	Long: color.CyanString(logo) +
		"\nServe a directory of JSON agent definitions as chat-capable HTTP endpoints.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agentgate version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
