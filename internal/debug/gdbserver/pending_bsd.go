//go:build darwin || freebsd || netbsd || openbsd

package gdbserver

// _IOR('f', 127, int); x/sys/unix does not export it for these systems.
const fionread = 0x4004667f
