package daemon

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// Manager tracks the capture daemon through a PID file.
type Manager struct {
	pidFile string
}

func New(pidFile string) *Manager {
	return &Manager{pidFile: pidFile}
}

func (m *Manager) WritePID() error {
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(m.pidFile, []byte(pid), 0644); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	return nil
}

// ReadPID returns the recorded PID, or 0 when no PID file exists.
func (m *Manager) ReadPID() (int, error) {
	data, err := os.ReadFile(m.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid PID in %s", m.pidFile)
	}

	return pid, nil
}

func (m *Manager) RemovePID() error {
	if err := os.Remove(m.pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

// IsRunning reports whether the recorded process is still alive. A stale
// PID file is cleaned up along the way.
func (m *Manager) IsRunning() (bool, int, error) {
	pid, err := m.ReadPID()
	if err != nil {
		return false, 0, err
	}
	if pid == 0 {
		return false, 0, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0, nil
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		_ = m.RemovePID()
		return false, 0, nil
	}

	return true, pid, nil
}

// Stop sends SIGTERM to the recorded process and removes the PID file.
func (m *Manager) Stop() error {
	running, pid, err := m.IsRunning()
	if err != nil {
		return err
	}
	if !running {
		return errors.New("daemon is not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrapf(err, "failed to find process %d", pid)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		_ = m.RemovePID()
		return errors.Wrapf(err, "failed to signal process %d", pid)
	}

	return m.RemovePID()
}
