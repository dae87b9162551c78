package client

import (
	"errors"
	"testing"

	"github.com/tabscope/tabctl/internal/bridge"
	"github.com/tabscope/tabctl/internal/protocol"
)

func TestDiscoverFindsOnlyExistingSockets(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, "chrome", "firefox", "brave")

	startStub(t, bridge.SocketPath(dir, "chrome"), echoData(`{}`))
	startStub(t, bridge.SocketPath(dir, "brave"), echoData(`{}`))

	endpoints := Discover(cfg, "")
	if len(endpoints) != 2 {
		t.Fatalf("discovered %d endpoints, want 2", len(endpoints))
	}
	if endpoints[0].Label != "chrome" || endpoints[1].Label != "brave" {
		t.Errorf("labels = %s, %s", endpoints[0].Label, endpoints[1].Label)
	}
}

func TestDiscoverLabelFilter(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, "chrome", "firefox")
	startStub(t, bridge.SocketPath(dir, "chrome"), echoData(`{}`))
	startStub(t, bridge.SocketPath(dir, "firefox"), echoData(`{}`))

	endpoints := Discover(cfg, "firefox")
	if len(endpoints) != 1 || endpoints[0].Label != "firefox" {
		t.Errorf("endpoints = %v", endpoints)
	}
}

func TestRequestAllKeepsSuccessesDropsFailures(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, "chrome", "firefox", "brave")

	startStub(t, bridge.SocketPath(dir, "chrome"), echoData(`[1]`))
	// firefox bridge is up but failing
	startStub(t, bridge.SocketPath(dir, "firefox"), func(protocol.Request) protocol.Response {
		return protocol.ErrResponse("No browser connected")
	})
	startStub(t, bridge.SocketPath(dir, "brave"), echoData(`[3]`))

	results, err := RequestAll(cfg, protocol.Request{Action: protocol.ActionListTabs}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Label != "chrome" || string(results[0].Data) != "[1]" {
		t.Errorf("result[0] = %+v", results[0])
	}
	if results[1].Label != "brave" || string(results[1].Data) != "[3]" {
		t.Errorf("result[1] = %+v", results[1])
	}
}

func TestRequestAllNoEndpoints(t *testing.T) {
	cfg := testConfig(t.TempDir())
	_, err := RequestAll(cfg, protocol.Request{Action: protocol.ActionListTabs}, "")
	if !errors.Is(err, protocol.ErrNoBridgesFound) {
		t.Errorf("err = %v, want no bridges found", err)
	}
}

func TestRequestFirstSoleEndpointInferred(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, "chrome", "firefox")
	startStub(t, bridge.SocketPath(dir, "firefox"), echoData(`"ok"`))

	data, err := RequestFirst(cfg, protocol.Request{Action: protocol.ActionActivateTab}, "")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"ok"` {
		t.Errorf("data = %s", data)
	}
}

func TestRequestFirstAmbiguousWithoutLabel(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, "chrome", "firefox")
	startStub(t, bridge.SocketPath(dir, "chrome"), echoData(`{}`))
	startStub(t, bridge.SocketPath(dir, "firefox"), echoData(`{}`))

	_, err := RequestFirst(cfg, protocol.Request{Action: protocol.ActionActivateTab}, "")
	if err == nil {
		t.Fatal("expected ambiguity error")
	}
}

func TestRequestFirstNamedLabelNotRunning(t *testing.T) {
	cfg := testConfig(t.TempDir(), "chrome", "firefox")
	_, err := RequestFirst(cfg, protocol.Request{Action: protocol.ActionActivateTab}, "firefox")

	var notRunning *NotRunningError
	if !errors.As(err, &notRunning) || notRunning.Label != "firefox" {
		t.Errorf("err = %v", err)
	}
}
