package bridge

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SocketDir returns the directory holding bridge sockets:
// $XDG_RUNTIME_DIR when set, else /tmp.
func SocketDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// SocketPath computes the well-known address for a browser label. The
// name embeds the uid so sockets from different users in a shared /tmp
// cannot collide. An empty dir means the default runtime dir.
func SocketPath(dir, label string) string {
	if dir == "" {
		dir = SocketDir()
	}
	return filepath.Join(dir, fmt.Sprintf("tabctl-%d-%s.sock", os.Getuid(), label))
}

// SocketManager owns one listening socket's filesystem lifecycle: stale
// file removal before bind, owner-only permissions, and removal on
// close. The address is the only persistent shared resource the bridge
// has, so it must be cleared on every exit path.
type SocketManager struct {
	path     string
	listener net.Listener
}

// NewSocketManager returns a manager for the given address.
func NewSocketManager(path string) *SocketManager {
	return &SocketManager{path: path}
}

// Path returns the socket address.
func (sm *SocketManager) Path() string {
	return sm.path
}

// Listen binds a fresh unix socket at the managed path. A stale file
// left by a previous run is removed first; absence is not an error.
// The socket is created with owner-only access via a umask guard so
// there is no window where another user could connect.
func (sm *SocketManager) Listen() (net.Listener, error) {
	if err := os.Remove(sm.path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket %s: %w", sm.path, err)
	}

	old := unix.Umask(0o177)
	listener, err := net.Listen("unix", sm.path)
	unix.Umask(old)
	if err != nil {
		return nil, fmt.Errorf("bind socket %s: %w", sm.path, err)
	}
	if err := os.Chmod(sm.path, 0o600); err != nil {
		listener.Close()
		os.Remove(sm.path)
		return nil, fmt.Errorf("restrict socket %s: %w", sm.path, err)
	}

	sm.listener = listener
	return listener, nil
}

// Close shuts the listener and removes the socket file. Safe to call
// more than once and on a manager that never listened.
func (sm *SocketManager) Close() error {
	var errs []error
	if sm.listener != nil {
		if err := sm.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
		sm.listener = nil
	}
	if err := os.Remove(sm.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
