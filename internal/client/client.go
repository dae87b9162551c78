package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
	"time"

	"github.com/tabscope/tabctl/internal/config"
	"github.com/tabscope/tabctl/internal/protocol"
)

// NotRunningError reports that a bridge's address is absent or refused
// the connection: the browser extension is not up. It is distinct from
// other I/O errors, which propagate as-is.
type NotRunningError struct {
	Label string
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("bridge for %s is not running", e.Label)
}

// RequestOne sends a single request to one bridge and returns the
// response data. The timeout covers the whole exchange and is
// independent of the bridge's own browser-side timeout.
func RequestOne(endpoint Endpoint, req protocol.Request, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	conn, err := net.DialTimeout("unix", endpoint.Address, timeout)
	if err != nil {
		if isNotRunning(err) {
			return nil, &NotRunningError{Label: endpoint.Label}
		}
		return nil, err
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		if isTimeout(err) {
			return nil, protocol.ErrTimeout
		}
		return nil, err
	}

	var resp protocol.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("malformed bridge response: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp.Data, nil
}

// isNotRunning reports whether a dial failure means "no bridge there":
// the socket file is gone or nothing is listening behind it.
func isNotRunning(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
