package daemonize

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Pidfile is an exclusively-locked file holding this process's pid (spec.md
// §6 "Pidfile"): opened O_RDWR|O_CREAT mode 0644, an exclusive
// non-blocking flock taken, unlinked on exit.
type Pidfile struct {
	path string
	file *os.File
}

// Acquire opens path, takes a non-blocking exclusive lock, and writes the
// current pid followed by a newline. If the lock is already held it
// returns an error naming the holding pid, read from the file's existing
// contents (spec.md §6: "if the lock is held, start-up fails with a
// diagnostic naming the holding pid").
func Acquire(path string) (*Pidfile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("daemonize: opening pidfile %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder := readHolderPid(f)
		f.Close()
		return nil, fmt.Errorf("daemonize: pidfile %s is locked by pid %s", path, holder)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("daemonize: truncating pidfile %s: %w", path, err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("daemonize: writing pidfile %s: %w", path, err)
	}

	return &Pidfile{path: path, file: f}, nil
}

// readHolderPid best-efforts reading the current pid content for the
// diagnostic message; an unreadable file just yields "unknown".
func readHolderPid(f *os.File) string {
	buf := make([]byte, 32)
	n, err := f.ReadAt(buf, 0)
	if err != nil && n == 0 {
		return "unknown"
	}
	return strings.TrimSpace(string(buf[:n]))
}

// Release unlocks, closes, and unlinks the pidfile (spec.md §6 "On daemon
// exit, the pidfile is unlinked").
func (p *Pidfile) Release() error {
	syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN)
	p.file.Close()
	return os.Remove(p.path)
}
