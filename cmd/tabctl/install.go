package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabscope/tabctl/internal/install"
)

var installBin string

var installCmd = &cobra.Command{
	Use:   "install [browser...]",
	Short: "Register the bridge with browsers",
	Long: `Write native-messaging host manifests so browsers can spawn the
tabctl bridge. With no arguments, manifests are written for every
supported browser; pass labels to limit the set.`,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [browser...]",
	Short: "Remove the bridge registration",
	RunE:  runUninstall,
}

func init() {
	installCmd.Flags().StringVar(&installBin, "bin", "", "Bridge binary path (default: this executable)")
}

func installTargets(args []string) ([]install.Target, error) {
	if len(args) == 0 {
		return install.Targets, nil
	}
	targets := make([]install.Target, 0, len(args))
	for _, arg := range args {
		t := install.Target(arg)
		if _, err := install.ManifestDir("/", t); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	targets, err := installTargets(args)
	if err != nil {
		return err
	}

	bin := installBin
	if bin == "" {
		bin, err = os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	for _, target := range targets {
		path, err := install.Install(home, target, bin)
		if err != nil {
			return fmt.Errorf("install for %s: %w", target, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", target, path)
	}
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	targets, err := installTargets(args)
	if err != nil {
		return err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	for _, target := range targets {
		if err := install.Uninstall(home, target); err != nil {
			return fmt.Errorf("uninstall for %s: %w", target, err)
		}
	}
	return nil
}
