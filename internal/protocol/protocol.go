// Package protocol defines the wire types spoken on both sides of a
// tabctl bridge: the length-prefixed JSON frames exchanged with the
// browser's native-messaging channel, and the newline-delimited JSON
// exchanged with CLI clients over the unix socket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Actions forwarded into the browser channel. Status is answered by the
// bridge itself and never crosses into the browser.
const (
	ActionListTabs        = "listTabs"
	ActionCloseTab        = "closeTab"
	ActionCloseTabs       = "closeTabs"
	ActionActivateTab     = "activateTab"
	ActionMoveTab         = "moveTab"
	ActionOpenTab         = "openTab"
	ActionListWindows     = "listWindows"
	ActionGetTrackingData = "getTrackingData"
	ActionStatus          = "status"
)

// ForwardedActions lists every action the bridge relays to the browser.
var ForwardedActions = []string{
	ActionListTabs,
	ActionCloseTab,
	ActionCloseTabs,
	ActionActivateTab,
	ActionMoveTab,
	ActionOpenTab,
	ActionListWindows,
	ActionGetTrackingData,
}

// Message types on the framed stdio channel.
const (
	TypeCommand = "command"
	TypeHello   = "hello"
)

// Sentinel errors. The message text is part of the contract: clients
// pattern-match on it, so it must stay stable.
var (
	ErrNotConnected    = errors.New("No browser connected")
	ErrTimeout         = errors.New("Request timed out")
	ErrInvalidJSON     = errors.New("Invalid JSON")
	ErrNoBridgesFound  = errors.New("No bridges found. Is the browser extension installed?")
	ErrInvalidID       = errors.New("invalid tab id")
	ErrInvalidWindowID = errors.New("invalid window id")
)

// Command is the outbound frame on the browser channel:
// {type:"command", requestId, action, ...params}. Params are flattened
// into the top-level object on the wire.
type Command struct {
	Type      string         `json:"type"`
	RequestID string         `json:"requestId"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"-"`
}

// MarshalJSON flattens Params alongside the fixed fields.
func (c Command) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(c.Params)+3)
	for k, v := range c.Params {
		obj[k] = v
	}
	obj["type"] = c.Type
	obj["requestId"] = c.RequestID
	obj["action"] = c.Action
	return json.Marshal(obj)
}

// Event is an inbound frame from the browser channel: either a one-time
// hello announcing the browser label, or a response resolving an
// in-flight command by requestId.
type Event struct {
	Type      string          `json:"type,omitempty"`
	Browser   string          `json:"browser,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// IsHello reports whether the event is the browser's hello announcement.
func (e *Event) IsHello() bool {
	return e.Type == TypeHello
}

// Request is one line of the socket protocol: {action, ...params}.
// Params are flattened on the wire; everything that is not "action"
// is a parameter.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"-"`
}

// MarshalJSON flattens Params alongside the action field.
func (r Request) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Params)+1)
	for k, v := range r.Params {
		obj[k] = v
	}
	obj["action"] = r.Action
	return json.Marshal(obj)
}

// UnmarshalJSON splits the action field from the open parameter set.
func (r *Request) UnmarshalJSON(b []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	action, ok := obj["action"].(string)
	if !ok || action == "" {
		return fmt.Errorf("request missing action")
	}
	delete(obj, "action")
	r.Action = action
	r.Params = obj
	return nil
}

// Response is one line of the socket protocol going back to the client:
// {data} on success, {error} on failure. Exactly one field is set.
type Response struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// ErrResponse builds an error response from a message.
func ErrResponse(msg string) Response {
	return Response{Error: msg}
}

// DataResponse marshals v into a success response. Marshal failures are
// reported as an error response rather than dropped.
func DataResponse(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return ErrResponse(fmt.Sprintf("internal: %v", err))
	}
	return Response{Data: data}
}

// StatusResult is the bridge-local answer to the status action.
type StatusResult struct {
	Browsers []string `json:"browsers"`
}
