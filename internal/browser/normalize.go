package browser

import (
	"net/url"
	"strconv"
	"time"
)

// RawTab is the browser extension's own shape for a tab. Fields the
// extension omits decode to their zero values, which is exactly the
// coalescing the normalized view requires.
type RawTab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
	Pinned   bool   `json:"pinned"`
}

// RawWindow is the browser extension's shape for a window.
type RawWindow struct {
	ID       int  `json:"id"`
	Focused  bool `json:"focused"`
	TabCount int  `json:"tabCount"`
}

// Tracking is per-tab usage metadata kept by the extension, keyed by
// the stringified tab id in the getTrackingData mapping. Timestamps are
// epoch milliseconds.
type Tracking struct {
	CreatedAt    int64 `json:"createdAt"`
	LastActiveAt int64 `json:"lastActiveAt"`
	Activations  int   `json:"activations"`
	Navigations  int   `json:"navigations"`
}

// Tab is the normalized, read-only view the CLI renders. ID is always a
// string, label-qualified when the tab came from a named bridge.
// Textual fields are never absent, only empty.
type Tab struct {
	ID          string `json:"id"`
	Browser     string `json:"browser,omitempty"`
	WindowID    int    `json:"windowId"`
	Index       int    `json:"index"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Domain      string `json:"domain,omitempty"`
	Active      bool   `json:"active"`
	Pinned      bool   `json:"pinned"`
	Created     string `json:"created,omitempty"`
	LastActive  string `json:"lastActive,omitempty"`
	Age         string `json:"age,omitempty"`
	Activations int    `json:"activations,omitempty"`
	Navigations int    `json:"navigations,omitempty"`
}

// Window is the normalized view of a browser window.
type Window struct {
	ID       string `json:"id"`
	Browser  string `json:"browser,omitempty"`
	Focused  bool   `json:"focused"`
	TabCount int    `json:"tabCount"`
}

const timestampLayout = "2006-01-02 15:04:05"

// NormalizeTab builds the client-visible view of raw, qualified with
// label when non-empty and enriched from tracking metadata when
// present. It never fails: an unparsable URL simply leaves Domain
// empty.
func NormalizeTab(raw RawTab, label string, tracking *Tracking, now time.Time) Tab {
	tab := Tab{
		ID:       QualifyID(label, raw.ID),
		Browser:  label,
		WindowID: raw.WindowID,
		Index:    raw.Index,
		Title:    raw.Title,
		URL:      raw.URL,
		Domain:   domainOf(raw.URL),
		Active:   raw.Active,
		Pinned:   raw.Pinned,
	}
	if tracking != nil {
		if tracking.CreatedAt > 0 {
			created := time.UnixMilli(tracking.CreatedAt)
			tab.Created = created.Format(timestampLayout)
			tab.Age = FormatAge(now.Sub(created))
		}
		if tracking.LastActiveAt > 0 {
			tab.LastActive = time.UnixMilli(tracking.LastActiveAt).Format(timestampLayout)
		}
		tab.Activations = tracking.Activations
		tab.Navigations = tracking.Navigations
	}
	return tab
}

// NormalizeWindow builds the client-visible view of a raw window.
func NormalizeWindow(raw RawWindow, label string) Window {
	return Window{
		ID:       QualifyID(label, raw.ID),
		Browser:  label,
		Focused:  raw.Focused,
		TabCount: raw.TabCount,
	}
}

// TrackingFor looks up the metadata for a numeric tab id in the mapping
// returned by getTrackingData.
func TrackingFor(data map[string]Tracking, tabID int) *Tracking {
	if data == nil {
		return nil
	}
	if t, ok := data[strconv.Itoa(tabID)]; ok {
		return &t
	}
	return nil
}

// domainOf extracts the host of a URL, or empty when the text does not
// parse as a URL with a host.
func domainOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
