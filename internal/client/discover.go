// Package client implements the CLI side of the bridge protocol:
// discovering live bridges, sending one-shot requests, and fanning a
// request out across every connected browser.
package client

import (
	"os"

	"github.com/tabscope/tabctl/internal/bridge"
	"github.com/tabscope/tabctl/internal/config"
)

// Endpoint describes one discoverable bridge.
type Endpoint struct {
	Label   string
	Address string
}

// Discover probes the candidate label set and returns the bridges whose
// well-known socket currently exists. A non-empty labelFilter restricts
// the probe to that one label. Existence at probe time is the only
// liveness signal, so callers re-discover per call and treat a refused
// connect as "not discovered".
func Discover(cfg config.Config, labelFilter string) []Endpoint {
	labels := cfg.Browsers
	if labelFilter != "" {
		labels = []string{labelFilter}
	}

	var endpoints []Endpoint
	for _, label := range labels {
		addr := bridge.SocketPath(cfg.SocketDir, label)
		if _, err := os.Stat(addr); err != nil {
			continue
		}
		endpoints = append(endpoints, Endpoint{Label: label, Address: addr})
	}
	return endpoints
}
