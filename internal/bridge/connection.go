package bridge

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/tabscope/tabctl/internal/protocol"
)

// connection handles one CLI client on the bridge's socket: newline-
// delimited JSON requests in, one response line per request out, in
// arrival order. A malformed line gets an error response and the
// connection stays open.
type connection struct {
	conn   net.Conn
	bridge *Bridge

	writeMu sync.Mutex
}

func newConnection(conn net.Conn, b *Bridge) *connection {
	return &connection{conn: conn, bridge: b}
}

// handle reads request lines until the client disconnects. An
// incomplete trailing fragment at EOF is discarded, never parsed.
func (c *connection) handle() {
	defer c.conn.Close()

	reader := bufio.NewReader(c.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				c.bridge.log.Debug().Err(err).Msg("client read")
			}
			return
		}

		var req protocol.Request
		if jsonErr := json.Unmarshal(line, &req); jsonErr != nil {
			if writeErr := c.write(protocol.ErrResponse(protocol.ErrInvalidJSON.Error())); writeErr != nil {
				return
			}
			continue
		}

		if err := c.write(c.dispatch(&req)); err != nil {
			return
		}
	}
}

// dispatch answers status locally and forwards everything else into the
// browser channel via the correlator.
func (c *connection) dispatch(req *protocol.Request) protocol.Response {
	if req.Action == protocol.ActionStatus {
		return protocol.DataResponse(protocol.StatusResult{Browsers: c.bridge.Browsers()})
	}

	data, err := c.bridge.Forward(req.Action, req.Params)
	if err != nil {
		return protocol.ErrResponse(err.Error())
	}
	return protocol.Response{Data: data}
}

// write sends one response line.
func (c *connection) write(resp protocol.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.conn.Write(payload)
	return err
}
