package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tabscope/tabctl/internal/browser"
	"github.com/tabscope/tabctl/internal/client"
	"github.com/tabscope/tabctl/internal/config"
	"github.com/tabscope/tabctl/internal/protocol"
)

var tabsJSON bool

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List tabs across connected browsers",
	Args:  cobra.NoArgs,
	RunE:  runTabs,
}

func init() {
	tabsCmd.Flags().BoolVar(&tabsJSON, "json", false, "Emit JSON instead of a table")
}

func runTabs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tabs, err := listTabs(cfg, browserFlag(cmd))
	if err != nil {
		return err
	}

	if tabsJSON {
		return printJSON(cmd.OutOrStdout(), tabs)
	}
	rows := make([][]string, 0, len(tabs))
	for _, t := range tabs {
		rows = append(rows, []string{t.ID, fmt.Sprintf("w%d", t.WindowID), flagMarks(t), t.Age, t.Domain, t.Title})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "WIN", "", "AGE", "DOMAIN", "TITLE"}, rows)
	return nil
}

// listTabs fans listTabs out to every reachable bridge and merges in
// per-tab tracking metadata where a bridge can supply it.
func listTabs(cfg config.Config, label string) ([]browser.Tab, error) {
	results, err := client.RequestAll(cfg, protocol.Request{Action: protocol.ActionListTabs}, label)
	if err != nil {
		return nil, err
	}
	tracking := fetchTracking(cfg, label)

	now := time.Now()
	var tabs []browser.Tab
	for _, res := range results {
		var raw []browser.RawTab
		if err := json.Unmarshal(res.Data, &raw); err != nil {
			continue
		}
		for _, r := range raw {
			tr := browser.TrackingFor(tracking[res.Label], r.ID)
			tabs = append(tabs, browser.NormalizeTab(r, res.Label, tr, now))
		}
	}
	return tabs, nil
}

// fetchTracking collects tracking metadata per browser label. Bridges
// that fail or predate the action are simply absent from the map.
func fetchTracking(cfg config.Config, label string) map[string]map[string]browser.Tracking {
	results, err := client.RequestAll(cfg, protocol.Request{Action: protocol.ActionGetTrackingData}, label)
	if err != nil {
		return nil
	}
	tracking := make(map[string]map[string]browser.Tracking, len(results))
	for _, res := range results {
		var data map[string]browser.Tracking
		if err := json.Unmarshal(res.Data, &data); err != nil {
			continue
		}
		tracking[res.Label] = data
	}
	return tracking
}

// flagMarks renders the active/pinned markers for the table.
func flagMarks(t browser.Tab) string {
	marks := ""
	if t.Active {
		marks += "*"
	}
	if t.Pinned {
		marks += "^"
	}
	return marks
}

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a new tab",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	req := protocol.Request{
		Action: protocol.ActionOpenTab,
		Params: map[string]any{"url": args[0]},
	}
	data, err := client.RequestFirst(cfg, req, browserFlag(cmd))
	if err != nil {
		return err
	}

	var raw browser.RawTab
	if err := json.Unmarshal(data, &raw); err == nil && raw.ID != 0 {
		label := browserFlag(cmd)
		if label == "" {
			if ep, err := client.ResolveEndpoint(cfg, ""); err == nil {
				label = ep.Label
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), browser.QualifyID(label, raw.ID))
	}
	return nil
}

var closeCmd = &cobra.Command{
	Use:   "close <id>...",
	Short: "Close one or more tabs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClose,
}

func runClose(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	byLabel := make(map[string][]int)
	for _, arg := range args {
		label, id, err := browser.ParseQualifiedID(arg)
		if err != nil {
			return err
		}
		if label == "" {
			label = browserFlag(cmd)
		}
		byLabel[label] = append(byLabel[label], id)
	}

	for label, ids := range byLabel {
		req := protocol.Request{
			Action: protocol.ActionCloseTabs,
			Params: map[string]any{"tabIds": ids},
		}
		if len(ids) == 1 {
			req = protocol.Request{
				Action: protocol.ActionCloseTab,
				Params: map[string]any{"tabId": ids[0]},
			}
		}
		if _, err := client.RequestFirst(cfg, req, label); err != nil {
			return err
		}
	}
	return nil
}

var activateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Focus a tab",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivate,
}

func runActivate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	label, id, err := browser.ParseQualifiedID(args[0])
	if err != nil {
		return err
	}
	if label == "" {
		label = browserFlag(cmd)
	}
	req := protocol.Request{
		Action: protocol.ActionActivateTab,
		Params: map[string]any{"tabId": id},
	}
	_, err = client.RequestFirst(cfg, req, label)
	return err
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <window>",
	Short: "Move a tab to another window",
	Args:  cobra.ExactArgs(2),
	RunE:  runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	label, id, err := browser.ParseQualifiedID(args[0])
	if err != nil {
		return err
	}
	if label == "" {
		label = browserFlag(cmd)
	}
	windowID, err := browser.ParseWindowID(args[1])
	if err != nil {
		return err
	}
	req := protocol.Request{
		Action: protocol.ActionMoveTab,
		Params: map[string]any{"tabId": id, "windowId": windowID},
	}
	_, err = client.RequestFirst(cfg, req, label)
	return err
}
