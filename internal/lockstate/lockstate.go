package lockstate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// Store owns the two on-disk artifacts of supervision: the lock marker whose
// existence records "supervisor believes the process is started", and the PID
// file holding the managed process's decimal PID. Both are plain files meant
// to be inspected by external monitoring.
type Store struct {
	lockPath string
	pidPath  string
}

func New(lockPath, pidPath string) *Store {
	return &Store{lockPath: lockPath, pidPath: pidPath}
}

func (s *Store) LockPath() string { return s.lockPath }
func (s *Store) PIDPath() string  { return s.pidPath }

// AcquireLock creates the marker file. Idempotent: an existing marker is
// success, not failure.
func (s *Store) AcquireLock() error {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o750); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("create lock marker %s: %w", s.lockPath, err)
	}
	return f.Close()
}

// ReleaseLock removes the marker file. Idempotent: an absent marker is success.
func (s *Store) ReleaseLock() error {
	if err := os.Remove(s.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock marker %s: %w", s.lockPath, err)
	}
	return nil
}

// LockHeld reports marker presence.
func (s *Store) LockHeld() bool {
	_, err := os.Stat(s.lockPath)
	return err == nil
}

// WritePID records pid atomically so readers never observe a partial write.
func (s *Store) WritePID(pid int) error {
	if err := os.MkdirAll(filepath.Dir(s.pidPath), 0o750); err != nil {
		return fmt.Errorf("create pid dir: %w", err)
	}
	if err := renameio.WriteFile(s.pidPath, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("write pidfile %s: %w", s.pidPath, err)
	}
	return nil
}

// ReadPID returns the recorded PID.
func (s *Store) ReadPID() (int, error) {
	data, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pidfile %s holds no valid pid: %w", s.pidPath, err)
	}
	return pid, nil
}

// RemovePID removes the PID file. Idempotent.
func (s *Store) RemovePID() error {
	if err := os.Remove(s.pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pidfile %s: %w", s.pidPath, err)
	}
	return nil
}

// HasPID reports PID file presence.
func (s *Store) HasPID() bool {
	_, err := os.Stat(s.pidPath)
	return err == nil
}
