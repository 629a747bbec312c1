//go:build windows

package gdbserver

import (
	"net"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// FIONREAD for WSAIoctl, _IOR('f', 127, u_long).
const fionread = 0x4004667f

// bytesAvailable asks winsock how many bytes are queued on conn.
// ok is false when conn is not backed by a socket.
func bytesAvailable(conn net.Conn) (int, bool) {
	sc, isSys := conn.(syscall.Conn)
	if !isSys {
		return 0, false
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var avail, returned uint32
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		ioctlErr = windows.WSAIoctl(windows.Handle(fd), fionread, nil, 0,
			(*byte)(unsafe.Pointer(&avail)), uint32(unsafe.Sizeof(avail)), &returned, nil, 0)
	}); err != nil || ioctlErr != nil {
		return 0, false
	}
	return int(avail), true
}
