package bridge

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tabscope/tabctl/internal/framing"
	"github.com/tabscope/tabctl/internal/protocol"
)

// testHarness runs a bridge against in-memory pipes standing in for the
// browser's stdio channel.
type testHarness struct {
	t      *testing.T
	bridge *Bridge

	// browser side of the channel
	toBridge   io.WriteCloser
	fromBridge *framing.Decoder
	out        io.ReadCloser
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	b := New(Config{
		SocketPath:     filepath.Join(t.TempDir(), "bridge.sock"),
		Label:          "chrome",
		RequestTimeout: 500 * time.Millisecond,
	}, stdinR, stdoutW)
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		b.Stop()
		stdinW.Close()
		stdoutR.Close()
		b.Wait()
	})

	return &testHarness{
		t:          t,
		bridge:     b,
		toBridge:   stdinW,
		fromBridge: framing.NewDecoder(),
		out:        stdoutR,
	}
}

// sendEvent frames an event onto the bridge's stdin.
func (h *testHarness) sendEvent(ev protocol.Event) {
	h.t.Helper()
	buf, err := framing.Encode(ev)
	if err != nil {
		h.t.Fatal(err)
	}
	if _, err := h.toBridge.Write(buf); err != nil {
		h.t.Fatal(err)
	}
}

// readCommand reads the next framed command from the bridge's stdout.
// Returns nil once the pipe closes; callers that run it in a goroutine
// must tolerate that, since cleanup may close the pipe under them.
func (h *testHarness) readCommand() map[string]any {
	buf := make([]byte, 4096)
	for {
		n, err := h.out.Read(buf)
		if err != nil {
			return nil
		}
		frames := h.fromBridge.Feed(buf[:n])
		if len(frames) == 0 {
			continue
		}
		var cmd map[string]any
		if err := json.Unmarshal(frames[0], &cmd); err != nil {
			return nil
		}
		return cmd
	}
}

// request opens a fresh client connection and performs one exchange.
func (h *testHarness) request(line string) protocol.Response {
	h.t.Helper()
	conn, err := net.Dial("unix", h.bridge.SocketPath())
	if err != nil {
		h.t.Fatal(err)
	}
	defer conn.Close()
	return h.exchange(conn, line)
}

func (h *testHarness) exchange(conn net.Conn, line string) protocol.Response {
	h.t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		h.t.Fatal(err)
	}
	raw, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		h.t.Fatal(err)
	}
	var resp protocol.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		h.t.Fatal(err)
	}
	return resp
}

func TestStatusBeforeAndAfterHello(t *testing.T) {
	h := newHarness(t)

	resp := h.request(`{"action":"status"}`)
	if resp.Error != "" {
		t.Fatalf("status error: %s", resp.Error)
	}
	var status protocol.StatusResult
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		t.Fatal(err)
	}
	if len(status.Browsers) != 0 {
		t.Fatalf("browsers before hello = %v", status.Browsers)
	}

	h.sendEvent(protocol.Event{Type: protocol.TypeHello, Browser: "chrome"})

	// hello is processed asynchronously off the stdio loop
	waitFor(t, func() bool {
		resp := h.request(`{"action":"status"}`)
		if err := json.Unmarshal(resp.Data, &status); err != nil {
			return false
		}
		return len(status.Browsers) == 1 && status.Browsers[0] == "chrome"
	})
}

func TestForwardBeforeHelloFailsNotConnected(t *testing.T) {
	h := newHarness(t)

	resp := h.request(`{"action":"listTabs"}`)
	if resp.Error != protocol.ErrNotConnected.Error() {
		t.Errorf("error = %q, want %q", resp.Error, protocol.ErrNotConnected.Error())
	}
}

func TestForwardRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.sendEvent(protocol.Event{Type: protocol.TypeHello, Browser: "firefox"})
	waitFor(t, func() bool { return len(h.bridge.Browsers()) == 1 })

	// Play the browser: answer the forwarded command.
	go func() {
		cmd := h.readCommand()
		if cmd == nil {
			return
		}
		h.sendEvent(protocol.Event{
			RequestID: cmd["requestId"].(string),
			Data:      json.RawMessage(`[{"id":1,"title":"a"}]`),
		})
	}()

	resp := h.request(`{"action":"listTabs"}`)
	if resp.Error != "" {
		t.Fatalf("error: %s", resp.Error)
	}
	if string(resp.Data) != `[{"id":1,"title":"a"}]` {
		t.Errorf("data = %s", resp.Data)
	}
}

func TestForwardedCommandCarriesParams(t *testing.T) {
	h := newHarness(t)
	h.sendEvent(protocol.Event{Type: protocol.TypeHello, Browser: "chrome"})
	waitFor(t, func() bool { return len(h.bridge.Browsers()) == 1 })

	go func() {
		cmd := h.readCommand()
		if cmd == nil {
			return
		}
		if cmd["type"] != protocol.TypeCommand || cmd["action"] != protocol.ActionCloseTab || cmd["tabId"] != float64(7) {
			t.Errorf("command frame = %v", cmd)
		}
		h.sendEvent(protocol.Event{RequestID: cmd["requestId"].(string), Data: json.RawMessage(`true`)})
	}()

	resp := h.request(`{"action":"closeTab","tabId":7}`)
	if resp.Error != "" {
		t.Fatalf("error: %s", resp.Error)
	}
}

func TestForwardTimesOutWhenBrowserSilent(t *testing.T) {
	h := newHarness(t)
	h.sendEvent(protocol.Event{Type: protocol.TypeHello, Browser: "chrome"})
	waitFor(t, func() bool { return len(h.bridge.Browsers()) == 1 })

	// Drain the command but never answer.
	go h.readCommand()

	resp := h.request(`{"action":"listTabs"}`)
	if resp.Error != protocol.ErrTimeout.Error() {
		t.Errorf("error = %q, want %q", resp.Error, protocol.ErrTimeout.Error())
	}
	if n := h.bridge.corr.PendingCount(); n != 0 {
		t.Errorf("pending count = %d after timeout", n)
	}
}

func TestInvalidJSONLineKeepsConnectionOpen(t *testing.T) {
	h := newHarness(t)

	conn, err := net.Dial("unix", h.bridge.SocketPath())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	if _, err := conn.Write([]byte("{broken\n")); err != nil {
		t.Fatal(err)
	}
	raw, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatal(err)
	}
	var resp protocol.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != protocol.ErrInvalidJSON.Error() {
		t.Fatalf("error = %q", resp.Error)
	}

	// Same connection still serves requests.
	if _, err := conn.Write([]byte(`{"action":"status"}` + "\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := reader.ReadBytes('\n'); err != nil {
		t.Errorf("connection closed after invalid line: %v", err)
	}
}

func TestStdinEOFStopsBridgeAndRemovesSocket(t *testing.T) {
	h := newHarness(t)
	path := h.bridge.SocketPath()

	h.toBridge.Close()
	h.bridge.Wait()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket file still present after stdin EOF: %v", err)
	}
}
