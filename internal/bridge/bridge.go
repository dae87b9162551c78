// Package bridge implements the per-browser bridge process: it speaks
// the browser's framed native-messaging protocol on stdio and exposes a
// newline-JSON unix socket to CLI clients, correlating requests across
// the two transports.
package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tabscope/tabctl/internal/config"
	"github.com/tabscope/tabctl/internal/framing"
	"github.com/tabscope/tabctl/internal/logx"
	"github.com/tabscope/tabctl/internal/protocol"
)

// Config holds bridge settings.
type Config struct {
	// SocketPath is the listening address. Empty means the well-known
	// path for Label under the default runtime dir.
	SocketPath string

	// Label names the browser until its hello arrives; the hello's
	// label wins. Used to compute the default socket path.
	Label string

	// RequestTimeout bounds each forwarded command.
	RequestTimeout time.Duration
}

// Bridge runs for the lifetime of one browser connection. All cross-
// connection state (browser identity, in-flight requests) lives on the
// instance, never in package globals, so several bridges can coexist in
// one process.
type Bridge struct {
	cfg  Config
	log  zerolog.Logger
	in   io.Reader
	out  io.Writer
	sock *SocketManager
	corr *Correlator

	outMu sync.Mutex // serializes frames onto the browser channel

	stateMu sync.Mutex
	label   string
	hello   bool

	listener net.Listener
	conns    sync.Map // *connection -> struct{}
	closed   atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a bridge reading browser frames from in and writing them
// to out. In production these are the process's stdin and stdout; tests
// substitute pipes.
func New(cfg Config, in io.Reader, out io.Writer) *Bridge {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = config.DefaultRequestTimeout
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = SocketPath("", cfg.Label)
	}
	b := &Bridge{
		cfg:  cfg,
		log:  logx.Log.With().Str("component", "bridge").Logger(),
		in:   in,
		out:  out,
		sock: NewSocketManager(cfg.SocketPath),
		done: make(chan struct{}),
	}
	b.corr = NewCorrelator(cfg.RequestTimeout, b.writeCommand)
	return b
}

// Start binds the listening socket and launches the accept and stdio
// loops. Failing to bind is the only fatal startup error.
func (b *Bridge) Start() error {
	listener, err := b.sock.Listen()
	if err != nil {
		return err
	}
	b.listener = listener
	b.log.Info().Str("socket", b.sock.Path()).Msg("bridge listening")

	b.wg.Add(2)
	go b.acceptLoop()
	go b.stdioLoop()
	return nil
}

// Stop tears the bridge down: stops accepting, removes the socket file,
// and unblocks Wait. Safe to call from any goroutine, more than once.
// In-flight requests are not cancelled explicitly; closing the socket
// fails their client connections at the transport level.
func (b *Bridge) Stop() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	close(b.done)
	if err := b.sock.Close(); err != nil {
		b.log.Warn().Err(err).Msg("socket cleanup")
	}
	// Unblock the stdio loop; stdin and test pipes are both closable.
	if closer, ok := b.in.(io.Closer); ok {
		closer.Close()
	}
	b.conns.Range(func(key, _ any) bool {
		key.(*connection).conn.Close()
		return true
	})
	b.log.Info().Msg("bridge stopped")
}

// Wait blocks until the bridge has stopped and its loops have exited.
func (b *Bridge) Wait() {
	<-b.done
	b.wg.Wait()
}

// SocketPath returns the listening address.
func (b *Bridge) SocketPath() string {
	return b.sock.Path()
}

// Browsers reports the connected browser labels for the status action:
// one label after hello, none before.
func (b *Bridge) Browsers() []string {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if !b.hello {
		return []string{}
	}
	return []string{b.label}
}

// Forward sends an action into the browser channel and waits for the
// correlated response. It fails immediately when no hello has arrived.
func (b *Bridge) Forward(action string, params map[string]any) (data []byte, err error) {
	b.stateMu.Lock()
	connected := b.hello
	b.stateMu.Unlock()
	if !connected {
		return nil, protocol.ErrNotConnected
	}
	return b.corr.Do(action, params)
}

// writeCommand frames one command onto the browser channel.
func (b *Bridge) writeCommand(cmd protocol.Command) error {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	return framing.NewEncoder(b.out).Encode(cmd)
}

// acceptLoop accepts CLI connections and hands each to its own
// goroutine, so a slow client never blocks the others.
func (b *Bridge) acceptLoop() {
	defer b.wg.Done()

	for {
		conn, err := b.listener.Accept()
		if err != nil {
			select {
			case <-b.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			b.log.Warn().Err(err).Msg("accept")
			continue
		}

		c := newConnection(conn, b)
		b.conns.Store(c, struct{}{})
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer b.conns.Delete(c)
			c.handle()
		}()
	}
}

// stdioLoop reads the browser channel until EOF, reassembling frames
// across arbitrary read boundaries and dispatching each event. EOF
// means the browser went away, which shuts the bridge down.
func (b *Bridge) stdioLoop() {
	defer b.wg.Done()
	defer b.Stop()

	dec := framing.NewDecoder()
	buf := make([]byte, 64*1024)
	for {
		n, err := b.in.Read(buf)
		if n > 0 {
			for _, frame := range dec.Feed(buf[:n]) {
				b.dispatch(frame)
			}
		}
		if err != nil {
			if err != io.EOF && !b.closed.Load() {
				b.log.Warn().Err(err).Msg("browser channel read")
			}
			return
		}
	}
}

// dispatch routes one decoded browser frame: hello sets the connection
// state, anything else resolves a pending request.
func (b *Bridge) dispatch(frame []byte) {
	var ev protocol.Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		b.log.Warn().Err(err).Msg("undecodable browser frame")
		return
	}
	if ev.IsHello() {
		b.stateMu.Lock()
		b.hello = true
		b.label = ev.Browser
		b.stateMu.Unlock()
		b.log.Info().Str("browser", ev.Browser).Msg("browser connected")
		return
	}
	if ev.RequestID == "" {
		b.log.Debug().Msg("browser frame without requestId dropped")
		return
	}
	b.corr.Resolve(&ev)
}
