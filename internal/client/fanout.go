package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tabscope/tabctl/internal/config"
	"github.com/tabscope/tabctl/internal/protocol"
)

// Result pairs one bridge's label with its response data.
type Result struct {
	Label string
	Data  json.RawMessage
}

// RequestAll sends req concurrently to every discovered bridge and
// returns the successful results in discovery order. A bridge that
// errors or times out is dropped from the result set; the call fails
// only when discovery finds nothing at all.
func RequestAll(cfg config.Config, req protocol.Request, labelFilter string) ([]Result, error) {
	endpoints := Discover(cfg, labelFilter)
	if len(endpoints) == 0 {
		return nil, protocol.ErrNoBridgesFound
	}

	outcomes := make([]*Result, len(endpoints))
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		i, ep := i, ep
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := RequestOne(ep, req, cfg.RequestTimeout)
			if err != nil {
				return
			}
			outcomes[i] = &Result{Label: ep.Label, Data: data}
		}()
	}
	wg.Wait()

	results := make([]Result, 0, len(endpoints))
	for _, r := range outcomes {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

// RequestFirst sends req to exactly one bridge. With a label it targets
// that browser directly; without one it requires a single discovered
// bridge and fails as ambiguous otherwise.
func RequestFirst(cfg config.Config, req protocol.Request, label string) (json.RawMessage, error) {
	endpoint, err := ResolveEndpoint(cfg, label)
	if err != nil {
		return nil, err
	}
	return RequestOne(endpoint, req, cfg.RequestTimeout)
}

// ResolveEndpoint picks the single target for a command: the bridge
// named by label, or the sole discovered bridge when label is empty.
func ResolveEndpoint(cfg config.Config, label string) (Endpoint, error) {
	endpoints := Discover(cfg, label)
	switch {
	case len(endpoints) == 0:
		if label != "" {
			return Endpoint{}, &NotRunningError{Label: label}
		}
		return Endpoint{}, protocol.ErrNoBridgesFound
	case len(endpoints) > 1:
		return Endpoint{}, fmt.Errorf("multiple browsers connected, qualify the id with a label (e.g. %s:42)", endpoints[0].Label)
	}
	return endpoints[0], nil
}
