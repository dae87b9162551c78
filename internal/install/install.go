// Package install writes the native-messaging host manifests that let
// a browser spawn the tabctl bridge, and marks the binary executable.
package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// HostName is the native-messaging host identifier registered with the
// browsers. The extension addresses the bridge by this name.
const HostName = "com.tabscope.tabctl"

// ExtensionID is the Chrome Web Store id of the companion extension.
const ExtensionID = "idmklgbkbmbcmdjjmhiqgdmevmgoebmn"

// FirefoxExtensionID is the companion extension's Gecko id.
const FirefoxExtensionID = "tabctl@tabscope.dev"

// Target names a browser family the manifest can be installed for.
type Target string

const (
	TargetChrome   Target = "chrome"
	TargetChromium Target = "chromium"
	TargetBrave    Target = "brave"
	TargetEdge     Target = "edge"
	TargetFirefox  Target = "firefox"
)

// Targets lists every supported install target.
var Targets = []Target{TargetChrome, TargetChromium, TargetBrave, TargetEdge, TargetFirefox}

// chromiumManifest is the manifest shape Chromium-family browsers read.
type chromiumManifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// firefoxManifest differs only in how the extension is allow-listed.
type firefoxManifest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Path              string   `json:"path"`
	Type              string   `json:"type"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

// ManifestDir returns where target expects host manifests, rooted at
// home. Per-user install only; system-wide locations are untouched.
func ManifestDir(home string, target Target) (string, error) {
	switch target {
	case TargetChrome:
		return filepath.Join(home, ".config", "google-chrome", "NativeMessagingHosts"), nil
	case TargetChromium:
		return filepath.Join(home, ".config", "chromium", "NativeMessagingHosts"), nil
	case TargetBrave:
		return filepath.Join(home, ".config", "BraveSoftware", "Brave-Browser", "NativeMessagingHosts"), nil
	case TargetEdge:
		return filepath.Join(home, ".config", "microsoft-edge", "NativeMessagingHosts"), nil
	case TargetFirefox:
		return filepath.Join(home, ".mozilla", "native-messaging-hosts"), nil
	default:
		return "", fmt.Errorf("unknown install target %q", target)
	}
}

// Install writes the host manifest for target, pointing the browser at
// binPath run in bridge mode, and ensures binPath is executable.
// Returns the manifest path it wrote.
func Install(home string, target Target, binPath string) (string, error) {
	dir, err := ManifestDir(home, target)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}

	var manifest any
	switch target {
	case TargetFirefox:
		manifest = firefoxManifest{
			Name:              HostName,
			Description:       "tabctl browser bridge",
			Path:              binPath,
			Type:              "stdio",
			AllowedExtensions: []string{FirefoxExtensionID},
		}
	default:
		manifest = chromiumManifest{
			Name:           HostName,
			Description:    "tabctl browser bridge",
			Path:           binPath,
			Type:           "stdio",
			AllowedOrigins: []string{fmt.Sprintf("chrome-extension://%s/", ExtensionID)},
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}
	data = append(data, '\n')

	path := filepath.Join(dir, HostName+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	if err := os.Chmod(binPath, 0o755); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("mark %s executable: %w", binPath, err)
	}
	return path, nil
}

// Uninstall removes the host manifest for target. Absence is not an
// error.
func Uninstall(home string, target Target) error {
	dir, err := ManifestDir(home, target)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, HostName+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
