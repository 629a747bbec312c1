//go:build !(linux || darwin || freebsd || netbsd || openbsd || windows)

package gdbserver

import "net"

// No socket ioctl to ask with; interrupts are only seen once ServerLoop runs.
func bytesAvailable(net.Conn) (int, bool) { return 0, false }
