//go:build linux || darwin || freebsd || netbsd || openbsd

package gdbserver

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// bytesAvailable asks the kernel how many bytes are queued on conn.
// ok is false when conn is not backed by a socket.
func bytesAvailable(conn net.Conn) (n int, ok bool) {
	sc, isSys := conn.(syscall.Conn)
	if !isSys {
		return 0, false
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		n, ioctlErr = unix.IoctlGetInt(int(fd), fionread)
	}); err != nil || ioctlErr != nil {
		return 0, false
	}
	return n, true
}
