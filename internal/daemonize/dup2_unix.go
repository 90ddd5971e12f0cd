//go:build !windows

package daemonize

import "syscall"

func dup2(oldfd, newfd uintptr) error {
	return syscall.Dup2(int(oldfd), int(newfd))
}
