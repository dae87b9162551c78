package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabscope/tabctl/internal/browser"
	"github.com/tabscope/tabctl/internal/client"
	"github.com/tabscope/tabctl/internal/protocol"
)

var windowsJSON bool

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List windows across connected browsers",
	Args:  cobra.NoArgs,
	RunE:  runWindows,
}

func init() {
	windowsCmd.Flags().BoolVar(&windowsJSON, "json", false, "Emit JSON instead of a table")
}

func runWindows(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	results, err := client.RequestAll(cfg, protocol.Request{Action: protocol.ActionListWindows}, browserFlag(cmd))
	if err != nil {
		return err
	}

	var windows []browser.Window
	for _, res := range results {
		var raw []browser.RawWindow
		if err := json.Unmarshal(res.Data, &raw); err != nil {
			continue
		}
		for _, r := range raw {
			windows = append(windows, browser.NormalizeWindow(r, res.Label))
		}
	}

	if windowsJSON {
		return printJSON(cmd.OutOrStdout(), windows)
	}
	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		focused := ""
		if w.Focused {
			focused = "*"
		}
		rows = append(rows, []string{w.ID, focused, fmt.Sprintf("%d", w.TabCount)})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "", "TABS"}, rows)
	return nil
}
