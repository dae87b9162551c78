// Command tabctl controls browser tabs and windows from the terminal.
// It talks to per-browser bridge processes over unix sockets; the
// bridges are spawned by the browsers themselves through native
// messaging and run `tabctl bridge`.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabscope/tabctl/internal/config"
)

const (
	appName    = "tabctl"
	appVersion = "0.3.1"
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Control browser tabs from the command line",
	Long: `Tabctl lists, activates, moves, opens, and closes browser tabs
across one or more running browsers.

Each browser runs a bridge process (spawned via native messaging) that
listens on a per-browser unix socket. Commands that name a tab accept
browser-qualified ids like "chrome:42"; the bare form "42" works when
only one browser is connected.`,
	Version:       appVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("browser", "b", "", "Target a single browser by label")
	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().String("socket-dir", "", "Directory holding bridge sockets")

	rootCmd.AddCommand(tabsCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s v%s\n", appName, appVersion))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration for a command run from
// the config file plus flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if dir, _ := cmd.Root().PersistentFlags().GetString("socket-dir"); dir != "" {
		cfg.SocketDir = dir
	}
	return cfg, nil
}

// browserFlag returns the -b/--browser label, empty for "all".
func browserFlag(cmd *cobra.Command) string {
	label, _ := cmd.Root().PersistentFlags().GetString("browser")
	return label
}
