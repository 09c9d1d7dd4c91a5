//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package logger

func isTerminal(fd uintptr) bool {
	return false
}
