package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tabscope/tabctl/internal/client"
	"github.com/tabscope/tabctl/internal/protocol"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which browser bridges are reachable",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	discovered := make(map[string]string)
	results, err := client.RequestAll(cfg, protocol.Request{Action: protocol.ActionStatus}, browserFlag(cmd))
	if err == nil {
		for _, res := range results {
			var status protocol.StatusResult
			if err := json.Unmarshal(res.Data, &status); err != nil {
				continue
			}
			if len(status.Browsers) > 0 {
				discovered[res.Label] = "connected"
			} else {
				discovered[res.Label] = "bridge up, browser not connected"
			}
		}
	}

	labels := cfg.Browsers
	if b := browserFlag(cmd); b != "" {
		labels = []string{b}
	}
	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		state, ok := discovered[label]
		if !ok {
			state = "not running"
		}
		rows = append(rows, []string{label, state})
	}
	printTable(cmd.OutOrStdout(), []string{"BROWSER", "STATE"}, rows)
	return nil
}
