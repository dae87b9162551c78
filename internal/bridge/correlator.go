package bridge

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabscope/tabctl/internal/protocol"
)

// result is the single outcome of one in-flight command.
type result struct {
	data json.RawMessage
	err  error
}

// Correlator matches commands sent into the browser channel with their
// eventual responses. Each in-flight command is a buffered channel in
// the pending map; whichever of {matching response, timeout} removes
// the entry first delivers the outcome, and the loser observes an
// already-empty slot and does nothing.
type Correlator struct {
	timeout time.Duration
	send    func(protocol.Command) error

	mu      sync.Mutex
	pending map[string]chan result
}

// NewCorrelator returns a correlator that emits commands through send
// and rejects unanswered requests after timeout.
func NewCorrelator(timeout time.Duration, send func(protocol.Command) error) *Correlator {
	return &Correlator{
		timeout: timeout,
		send:    send,
		pending: make(map[string]chan result),
	}
}

// Do sends action into the browser channel and blocks until the
// matching response arrives or the timeout fires. Exactly one of the
// two happens per call.
func (c *Correlator) Do(action string, params map[string]any) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan result, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	cmd := protocol.Command{
		Type:      protocol.TypeCommand,
		RequestID: id,
		Action:    action,
		Params:    params,
	}
	if err := c.send(cmd); err != nil {
		c.take(id)
		return nil, err
	}

	timer := time.AfterFunc(c.timeout, func() {
		if taken := c.take(id); taken != nil {
			taken <- result{err: protocol.ErrTimeout}
		}
	})
	defer timer.Stop()

	res := <-ch
	return res.data, res.err
}

// Resolve completes the pending request named by the event, if one is
// still registered. A response arriving after its timeout already fired
// finds nothing and is silently discarded.
func (c *Correlator) Resolve(ev *protocol.Event) {
	ch := c.take(ev.RequestID)
	if ch == nil {
		return
	}
	if ev.Error != "" {
		ch <- result{err: errors.New(ev.Error)}
		return
	}
	ch <- result{data: ev.Data}
}

// take atomically removes and returns the pending channel for id, or
// nil when the request was already resolved.
func (c *Correlator) take(id string) chan result {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.pending[id]
	delete(c.pending, id)
	return ch
}

// PendingCount reports the number of in-flight requests.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
